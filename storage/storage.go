package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Storage implementations for missing objects.
var ErrNotFound = errors.New("object not found")

// Storage is a key/value object store rooted at a bucket and prefix.
type Storage interface {
	Write(ctx context.Context, filepath string, data io.Reader) error
	Read(ctx context.Context, filepath string) (io.ReadCloser, error)
}
