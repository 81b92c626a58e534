// Package readings implements the submission and query services for
// water-level readings. Persistence is reached only through the narrow
// store interfaces declared here.
package readings

import (
	"context"
	"io"
	"time"

	"p9e.in/gaugewatch/models"
)

// Filter selects readings from a ReadingStore. Zero values mean "any".
// Results are always ordered newest first.
type Filter struct {
	SiteID   string
	Verified *bool
	Since    time.Time
	Limit    int // 0 means no limit
}

// ReadingStore is the document-store contract for readings. Create assigns
// the reading's ID and CreatedAt. There is no update or delete.
type ReadingStore interface {
	Create(ctx context.Context, r *models.Reading) error
	List(ctx context.Context, f Filter) ([]models.Reading, error)
	Get(ctx context.Context, id string) (*models.Reading, error)
	ReferencesPhoto(ctx context.Context, photoID string) (bool, error)
}

// PhotoStore is the binary-store contract for gauge photos. Save generates
// the photo id.
type PhotoStore interface {
	Save(ctx context.Context, contentType string, data []byte) (string, error)
	Open(ctx context.Context, photoID string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, photoID string) error
}

// PhotoLister enumerates stored photos written before olderThan.
type PhotoLister interface {
	ListPhotos(ctx context.Context, olderThan time.Time) ([]string, error)
}

// Notifier is told about every reading that was created successfully.
// Implementations must not block.
type Notifier interface {
	ReadingCreated(ctx context.Context, r models.Reading)
}

// Observer records submission outcomes, typically as metrics.
type Observer interface {
	ObserveSubmission(outcome Outcome, photoBytes int)
}

// Outcome classifies the result of one Submit call.
type Outcome string

const (
	OutcomeVerified           Outcome = "verified"
	OutcomeUnverified         Outcome = "unverified"
	OutcomeInvalidInput       Outcome = "invalid_input"
	OutcomeStorageUnavailable Outcome = "storage_unavailable"
	OutcomePartial            Outcome = "partial"
)
