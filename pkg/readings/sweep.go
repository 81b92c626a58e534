package readings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
)

// SweepablePhotoStore is a photo store that can enumerate its photos.
type SweepablePhotoStore interface {
	PhotoStore
	PhotoLister
}

// SweepResult summarizes one orphan sweep.
type SweepResult struct {
	Checked int      `json:"checked"`
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
}

// SweepOrphanPhotos deletes photos written before olderThan that no
// reading references. The grace period must cover the time a submission
// needs between the photo write and the reading write.
func SweepOrphanPhotos(ctx context.Context, photos SweepablePhotoStore, store ReadingStore, olderThan time.Time) (*SweepResult, error) {
	ids, err := photos.ListPhotos(ctx, olderThan)
	if err != nil {
		return nil, storageUnavailable("list photos", err)
	}

	result := &SweepResult{Deleted: []string{}, Failed: []string{}}
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++

		referenced, err := store.ReferencesPhoto(ctx, id)
		if err != nil {
			return result, storageUnavailable("check photo reference", err)
		}
		if referenced {
			continue
		}

		if err := photos.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			result.Failed = append(result.Failed, id)
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
			continue
		}
		result.Deleted = append(result.Deleted, id)
		log.WithField("photo", id).Info("deleted orphaned photo")
	}

	if len(errs) > 0 {
		return result, storageUnavailable("sweep orphans", errors.Join(errs...))
	}
	return result, nil
}
