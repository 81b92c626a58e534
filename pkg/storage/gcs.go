package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"p9e.in/gaugewatch/pkg/readings"
)

// GCSPhotoStore keeps photos as objects in a Google Cloud Storage bucket.
type GCSPhotoStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSPhotoStore connects to GCS. An empty credentialsFile uses the
// ambient credentials, which is what Cloud Run provides.
func NewGCSPhotoStore(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSPhotoStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket name is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: failed to create client: %w", err)
	}
	return &GCSPhotoStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (s *GCSPhotoStore) object(photoID string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(path.Join(s.prefix, photoID))
}

func (s *GCSPhotoStore) Save(ctx context.Context, contentType string, data []byte) (string, error) {
	id := uuid.NewString() + extensionFor(contentType)

	err := upload(ctx, func(ctx context.Context) objectWriter {
		w := s.object(id).NewWriter(ctx)
		w.ContentType = contentType
		w.Metadata = map[string]string{
			"uploaded_at": time.Now().UTC().Format(time.RFC3339),
		}
		return w
	}, data)
	if err != nil {
		return "", err
	}
	return id, nil
}

// objectWriter is the part of *storage.Writer that upload needs.
type objectWriter interface {
	io.Writer
	Close() error
}

// upload streams data through the writer returned by open. A failed copy
// cancels the writer's context before Close so no partial object is
// committed.
func upload(ctx context.Context, open func(context.Context) objectWriter, data []byte) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := open(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		cancel()
		w.Close()
		return fmt.Errorf("gcs: failed to copy data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: failed to close writer: %w", err)
	}
	return nil
}

func (s *GCSPhotoStore) Open(ctx context.Context, photoID string) (io.ReadCloser, string, error) {
	r, err := s.object(photoID).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", readings.ErrNotFound
		}
		return nil, "", fmt.Errorf("gcs: failed to open object: %w", err)
	}
	return r, r.Attrs.ContentType, nil
}

func (s *GCSPhotoStore) Delete(ctx context.Context, photoID string) error {
	if err := s.object(photoID).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return readings.ErrNotFound
		}
		return fmt.Errorf("gcs: failed to delete object: %w", err)
	}
	return nil
}

func (s *GCSPhotoStore) ListPhotos(ctx context.Context, olderThan time.Time) ([]string, error) {
	q := &storage.Query{}
	if s.prefix != "" {
		q.Prefix = s.prefix + "/"
	}

	var ids []string
	it := s.client.Bucket(s.bucket).Objects(ctx, q)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs: failed to list objects: %w", err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		if attrs.Created.Before(olderThan) {
			ids = append(ids, strings.TrimPrefix(attrs.Name, q.Prefix))
		}
	}
	return ids, nil
}

// Close releases the underlying client.
func (s *GCSPhotoStore) Close() error {
	return s.client.Close()
}
