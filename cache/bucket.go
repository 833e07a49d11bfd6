package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"iceberg-lens/storage"
)

// Bucket keeps entries as objects in an object store, so every replica of
// the service shares one cache.
type Bucket struct {
	objects storage.Storage
}

func NewBucket(objects storage.Storage) *Bucket {
	return &Bucket{objects: objects}
}

func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := b.objects.Read(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("entry %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading entry %q: %w", key, err)
	}
	return data, nil
}

func (b *Bucket) Put(ctx context.Context, key string, value []byte) error {
	return b.objects.Write(ctx, key, bytes.NewReader(value))
}
