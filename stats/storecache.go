package stats

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"iceberg-lens/cache"
)

// CacheKeyPrefix namespaces stats entries in a shared store.
const CacheKeyPrefix = "manifest-stats/"

// CacheKey derives the cache key for a manifest list location.
func CacheKey(manifestList string) string {
	sum := blake3.Sum256([]byte(manifestList))
	return CacheKeyPrefix + hex.EncodeToString(sum[:])
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("stats: cbor encoder: " + err.Error())
	}
}

// StoreCache implements Cache on top of a byte store.
type StoreCache struct {
	store cache.Store
}

func NewStoreCache(store cache.Store) *StoreCache {
	return &StoreCache{store: store}
}

func (s *StoreCache) Get(ctx context.Context, key string) (TableStats, bool, error) {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return TableStats{}, false, nil
	}
	if err != nil {
		return TableStats{}, false, err
	}

	var stats TableStats
	if err := cbor.Unmarshal(data, &stats); err != nil {
		return TableStats{}, false, fmt.Errorf("decoding cached stats %s: %w", key, err)
	}
	return stats, true, nil
}

func (s *StoreCache) Put(ctx context.Context, key string, value TableStats) error {
	data, err := encMode.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	return s.store.Put(ctx, key, data)
}
