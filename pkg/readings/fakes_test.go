package readings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"p9e.in/gaugewatch/models"
)

// fakeReadings records every write and serves reads from memory.
type fakeReadings struct {
	mu        sync.Mutex
	items     []models.Reading
	createErr error
	listErr   error
	creates   int
	now       time.Time
}

func (f *fakeReadings) Create(_ context.Context, r *models.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	if r.ID == "" {
		r.ID = fmt.Sprintf("reading-%03d", len(f.items)+1)
	}
	if f.now.IsZero() {
		f.now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	}
	f.now = f.now.Add(time.Minute)
	r.CreatedAt = f.now
	f.items = append(f.items, *r)
	return nil
}

func (f *fakeReadings) List(_ context.Context, flt Filter) ([]models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Reading
	for _, r := range f.items {
		if flt.SiteID != "" && r.SiteID != flt.SiteID {
			continue
		}
		if flt.Verified != nil && r.IsVerified != *flt.Verified {
			continue
		}
		if !flt.Since.IsZero() && r.CreatedAt.Before(flt.Since) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if flt.Limit > 0 && len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (f *fakeReadings) Get(_ context.Context, id string) (*models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeReadings) ReferencesPhoto(_ context.Context, photoID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.PhotoID == photoID {
			return true, nil
		}
	}
	return false, nil
}

type storedPhoto struct {
	contentType string
	data        []byte
	created     time.Time
}

// fakePhotos keeps photos in a map and counts calls.
type fakePhotos struct {
	mu        sync.Mutex
	photos    map[string]storedPhoto
	saves     int
	deletes   int
	saveErr   error
	deleteErr error
	next      int
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{photos: make(map[string]storedPhoto)}
}

func (f *fakePhotos) Save(_ context.Context, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.next++
	id := fmt.Sprintf("photo-%03d", f.next)
	f.photos[id] = storedPhoto{contentType: contentType, data: data, created: time.Unix(int64(f.next), 0)}
	return id, nil
}

func (f *fakePhotos) Open(_ context.Context, id string) (io.ReadCloser, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(p.data)), p.contentType, nil
}

func (f *fakePhotos) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.photos[id]; !ok {
		return ErrNotFound
	}
	delete(f.photos, id)
	return nil
}

func (f *fakePhotos) ListPhotos(_ context.Context, olderThan time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, p := range f.photos {
		if p.created.Before(olderThan) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type recordingNotifier struct {
	got []models.Reading
}

func (n *recordingNotifier) ReadingCreated(_ context.Context, r models.Reading) {
	n.got = append(n.got, r)
}

type recordingObserver struct {
	outcomes []Outcome
}

func (o *recordingObserver) ObserveSubmission(outcome Outcome, _ int) {
	o.outcomes = append(o.outcomes, outcome)
}

var errBackend = errors.New("backend down")
