package storage

import (
	"context"

	"github.com/apex/log"
	"p9e.in/gaugewatch/pkg/readings"
)

// PhotoConfig selects and configures the photo backend.
type PhotoConfig struct {
	UseGCS          bool
	Bucket          string
	Prefix          string
	CredentialsFile string
	LocalDir        string
}

// NewPhotoStore returns the GCS store in production and the local one in
// development. The returned close func is never nil.
func NewPhotoStore(ctx context.Context, cfg PhotoConfig) (readings.SweepablePhotoStore, func() error, error) {
	if cfg.UseGCS {
		s, err := NewGCSPhotoStore(ctx, cfg.Bucket, cfg.Prefix, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("bucket", cfg.Bucket).Info("storing photos in GCS")
		return s, s.Close, nil
	}

	s, err := NewLocalPhotoStore(cfg.LocalDir)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("dir", cfg.LocalDir).Info("storing photos on local disk")
	return s, func() error { return nil }, nil
}
