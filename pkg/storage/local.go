package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"p9e.in/gaugewatch/pkg/readings"
)

// LocalPhotoStore writes photos to a directory on the local filesystem.
// Used in development when GCS is not configured.
type LocalPhotoStore struct {
	dir string
}

// NewLocalPhotoStore creates the upload directory if needed.
func NewLocalPhotoStore(dir string) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalPhotoStore{dir: dir}, nil
}

// Save stores the photo as <timestamp>-<uuid><ext>; the file name is the id.
func (s *LocalPhotoStore) Save(_ context.Context, contentType string, data []byte) (string, error) {
	timestamp := time.Now().UTC().Format("20060102-150405")
	id := fmt.Sprintf("%s-%s%s", timestamp, uuid.NewString(), extensionFor(contentType))

	dst, err := os.Create(filepath.Join(s.dir, id))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, bytes.NewReader(data)); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return id, nil
}

func (s *LocalPhotoStore) Open(_ context.Context, photoID string) (io.ReadCloser, string, error) {
	path, err := s.path(photoID)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", readings.ErrNotFound
		}
		return nil, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(photoID))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}

func (s *LocalPhotoStore) Delete(_ context.Context, photoID string) error {
	path, err := s.path(photoID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return readings.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *LocalPhotoStore) ListPhotos(_ context.Context, olderThan time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(olderThan) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// path rejects ids that would escape the upload directory.
func (s *LocalPhotoStore) path(photoID string) (string, error) {
	if photoID == "" || photoID != filepath.Base(photoID) || strings.HasPrefix(photoID, ".") {
		return "", readings.ErrNotFound
	}
	return filepath.Join(s.dir, photoID), nil
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
