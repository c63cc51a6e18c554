// Package storage puts attachment bytes into an object bucket.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("storage object not found")

// ObjectStore is the subset of bucket operations the attachment flow needs.
type ObjectStore interface {
	Upload(ctx context.Context, path string, r io.Reader, contentType string) (int64, error)
	Delete(ctx context.Context, path string) error
	// PublicURL is a pure lookup; it performs no I/O and no signing.
	PublicURL(path string) string
}
