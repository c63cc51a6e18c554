package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// writerFunc opens a streaming object writer. The object is committed on
// Close; cancelling ctx before Close discards it.
type writerFunc func(ctx context.Context, path, contentType string) io.WriteCloser

// GCSStore writes objects to a Cloud Storage bucket obtained from Firebase.
type GCSStore struct {
	bucket    *gcs.BucketHandle
	name      string
	newWriter writerFunc
}

func NewGCSStore(bucket *gcs.BucketHandle, name string) *GCSStore {
	s := &GCSStore{bucket: bucket, name: name}
	s.newWriter = func(ctx context.Context, path, contentType string) io.WriteCloser {
		w := s.bucket.Object(path).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	return s
}

func (s *GCSStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.newWriter(ctx, path, contentType)
	n, err := io.Copy(w, r)
	if err != nil {
		// Abort instead of Close so no partial object is committed.
		cancel()
		return 0, fmt.Errorf("failed to write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize object %s: %w", path, err)
	}
	return n, nil
}

func (s *GCSStore) Delete(ctx context.Context, path string) error {
	err := s.bucket.Object(path).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrObjectNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

func (s *GCSStore) PublicURL(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.name, strings.Join(segments, "/"))
}
