package readings

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"p9e.in/gaugewatch/models"
)

const (
	// DefaultLimit applies when a caller passes no positive limit.
	DefaultLimit = 20
	// MaxLimit caps any single listing.
	MaxLimit = 500
)

// QueryService answers the read-only questions the dashboard asks.
type QueryService struct {
	readings ReadingStore
	photos   PhotoStore
}

// NewQueryService creates a query service over the given stores
func NewQueryService(readings ReadingStore, photos PhotoStore) *QueryService {
	return &QueryService{readings: readings, photos: photos}
}

// ListRecent returns the newest readings, optionally for one site only.
func (q *QueryService) ListRecent(ctx context.Context, limit int, siteID string) ([]models.Reading, error) {
	return q.list(ctx, Filter{
		SiteID: strings.TrimSpace(siteID),
		Limit:  clampLimit(limit),
	})
}

// ListBySite returns the newest readings of one site.
func (q *QueryService) ListBySite(ctx context.Context, siteID string, limit int) ([]models.Reading, error) {
	return q.ListBySiteSince(ctx, siteID, time.Time{}, limit)
}

// ListBySiteSince returns the newest readings of one site created at or
// after since. A zero since disables the time bound.
func (q *QueryService) ListBySiteSince(ctx context.Context, siteID string, since time.Time, limit int) ([]models.Reading, error) {
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return nil, invalidInput("site id is required")
	}
	return q.list(ctx, Filter{
		SiteID: siteID,
		Since:  since,
		Limit:  clampLimit(limit),
	})
}

// ListUnverified returns every reading that failed location verification.
func (q *QueryService) ListUnverified(ctx context.Context) ([]models.Reading, error) {
	verified := false
	return q.list(ctx, Filter{Verified: &verified})
}

// Get returns a single reading by id.
func (q *QueryService) Get(ctx context.Context, id string) (*models.Reading, error) {
	r, err := q.readings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storageUnavailable("get reading", err)
	}
	return r, nil
}

// OpenPhoto opens the photo attached to a reading.
func (q *QueryService) OpenPhoto(ctx context.Context, readingID string) (io.ReadCloser, string, error) {
	r, err := q.Get(ctx, readingID)
	if err != nil {
		return nil, "", err
	}
	rc, contentType, err := q.photos.Open(ctx, r.PhotoID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", err
		}
		return nil, "", storageUnavailable("open photo", err)
	}
	return rc, contentType, nil
}

func (q *QueryService) list(ctx context.Context, f Filter) ([]models.Reading, error) {
	out, err := q.readings.List(ctx, f)
	if err != nil {
		return nil, storageUnavailable("list readings", err)
	}
	if out == nil {
		out = []models.Reading{}
	}
	return out, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
