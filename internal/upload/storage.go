package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

// Storage persists an object and returns the URL it is served from.
type Storage interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// LocalStorage writes under Dir; files are served by the /media route.
type LocalStorage struct {
	Dir     string
	BaseURL string
}

func (s *LocalStorage) Put(_ context.Context, name, _ string, r io.Reader) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("upload: bad object name %q", name)
	}
	full := filepath.Join(s.Dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("upload: mkdir: %w", err)
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("upload: create: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("upload: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("upload: close: %w", err)
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + filepath.ToSlash(clean), nil
}

// GCSStorage writes objects to a Cloud Storage bucket.
type GCSStorage struct {
	Client *storage.Client
	Bucket string
}

func NewGCSStorage(ctx context.Context, bucket string) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("upload: storage.NewClient failed: %w", err)
	}
	return &GCSStorage{Client: client, Bucket: bucket}, nil
}

func (s *GCSStorage) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	w := s.Client.Bucket(s.Bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload: gcs write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload: gcs close %s: %w", name, err)
	}
	return "https://storage.googleapis.com/" + path.Join(s.Bucket, name), nil
}

func (s *GCSStorage) Close() error { return s.Client.Close() }
