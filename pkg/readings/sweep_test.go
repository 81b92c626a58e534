package readings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/gaugewatch/models"
)

func TestSweepOrphanPhotos(t *testing.T) {
	store := &fakeReadings{}
	photos := newFakePhotos()
	ctx := context.Background()

	kept, err := photos.Save(ctx, "image/jpeg", []byte("a"))
	require.NoError(t, err)
	orphan, err := photos.Save(ctx, "image/jpeg", []byte("b"))
	require.NoError(t, err)
	recent, err := photos.Save(ctx, "image/jpeg", []byte("c"))
	require.NoError(t, err)
	seed(t, store, models.Reading{SiteID: "A", PhotoID: kept})

	// photo n is created at unix second n, so the cutoff excludes the third
	res, err := SweepOrphanPhotos(ctx, photos, store, time.Unix(3, 0))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, []string{orphan}, res.Deleted)
	assert.Empty(t, res.Failed)
	assert.Contains(t, photos.photos, kept)
	assert.Contains(t, photos.photos, recent)
	assert.NotContains(t, photos.photos, orphan)
}

func TestSweepOrphanPhotos_DeleteFailure(t *testing.T) {
	store := &fakeReadings{}
	photos := newFakePhotos()
	ctx := context.Background()

	id, err := photos.Save(ctx, "image/jpeg", []byte("a"))
	require.NoError(t, err)
	photos.deleteErr = errBackend

	res, err := SweepOrphanPhotos(ctx, photos, store, time.Unix(10, 0))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Equal(t, []string{id}, res.Failed)
}
