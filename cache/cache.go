// Package cache provides the byte stores behind memoized results. Values are
// opaque; callers handle encoding.
package cache

import (
	"context"
	"errors"
	"fmt"

	"iceberg-lens/config"
	"iceberg-lens/storage"
)

// ErrNotFound is returned by Get for keys that were never stored or have
// been evicted.
var ErrNotFound = errors.New("cache entry not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// New builds the store selected by cfg.Backend.
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.CacheMemory:
		return NewMemory(cfg.MaxEntries), nil
	case config.CacheDisk:
		return NewDisk(cfg.Dir)
	case config.CacheS3:
		client := storage.NewS3Client(storage.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
		})
		return NewBucket(storage.NewS3Storage(client, cfg.Bucket, cfg.Prefix)), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
