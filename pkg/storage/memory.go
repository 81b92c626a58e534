package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/pkg/readings"
)

type memoryPhoto struct {
	contentType string
	data        []byte
	createdAt   time.Time
}

// MemoryStore is an in-process reading and photo store. It backs the
// "memory" database driver and handler tests.
type MemoryStore struct {
	mu       sync.RWMutex
	readings []models.Reading
	photos   map[string]memoryPhoto
	now      func() time.Time
}

// NewMemoryStore creates an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		photos: make(map[string]memoryPhoto),
		now:    time.Now,
	}
}

// SetClock replaces the time source used to stamp new records.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *MemoryStore) Create(_ context.Context, r *models.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now().UTC()
	}
	m.readings = append(m.readings, *r)
	return nil
}

func (m *MemoryStore) List(_ context.Context, f readings.Filter) ([]models.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Reading, 0, len(m.readings))
	for _, r := range m.readings {
		if f.SiteID != "" && r.SiteID != f.SiteID {
			continue
		}
		if f.Verified != nil && r.IsVerified != *f.Verified {
			continue
		}
		if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.readings {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, readings.ErrNotFound
}

func (m *MemoryStore) ReferencesPhoto(_ context.Context, photoID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.readings {
		if r.PhotoID == photoID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) Save(_ context.Context, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.photos[id] = memoryPhoto{
		contentType: contentType,
		data:        bytes.Clone(data),
		createdAt:   m.now(),
	}
	return id, nil
}

func (m *MemoryStore) Open(_ context.Context, photoID string) (io.ReadCloser, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.photos[photoID]
	if !ok {
		return nil, "", readings.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(p.data)), p.contentType, nil
}

func (m *MemoryStore) Delete(_ context.Context, photoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.photos[photoID]; !ok {
		return readings.ErrNotFound
	}
	delete(m.photos, photoID)
	return nil
}

func (m *MemoryStore) ListPhotos(_ context.Context, olderThan time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, p := range m.photos {
		if p.createdAt.Before(olderThan) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// PhotoCount returns the number of stored photos.
func (m *MemoryStore) PhotoCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.photos)
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }
