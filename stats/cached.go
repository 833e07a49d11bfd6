package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"iceberg-lens/storage"
)

// DefaultWriteTimeout bounds a detached cache write.
const DefaultWriteTimeout = 10 * time.Second

// Cache is the memoization port. Keys come from CacheKey.
type Cache interface {
	Get(ctx context.Context, key string) (TableStats, bool, error)
	Put(ctx context.Context, key string, value TableStats) error
}

// Cached wraps a Computer with a cache and collapses concurrent computations
// for the same location into one. Cache failures never fail a computation:
// read errors count as misses and writes run detached from the caller.
type Cached struct {
	next         Computer
	cache        Cache
	metrics      *Metrics
	logger       *slog.Logger
	writeTimeout time.Duration

	group  singleflight.Group
	writes sync.WaitGroup

	mu sync.Mutex
	// pending holds results whose cache write has not finished yet, so a
	// follow-up call does not race the write and fetch again.
	pending map[string]TableStats
}

type CachedOption func(*Cached)

// WithWriteTimeout bounds each detached cache write.
func WithWriteTimeout(d time.Duration) CachedOption {
	return func(c *Cached) { c.writeTimeout = d }
}

func NewCached(next Computer, cache Cache, metrics *Metrics, logger *slog.Logger, opts ...CachedOption) *Cached {
	c := &Cached{
		next:         next,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		writeTimeout: DefaultWriteTimeout,
		pending:      make(map[string]TableStats),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cached) Compute(ctx context.Context, manifestList string, creds storage.Credentials) (TableStats, error) {
	key := CacheKey(manifestList)
	if stats, ok := c.lookup(ctx, key); ok {
		return stats, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// A call that lost the race with a finishing leader sees its result here.
		if stats, ok, _ := c.get(ctx, key); ok {
			return stats, nil
		}
		stats, err := c.next.Compute(ctx, manifestList, creds)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, stats)
		return stats, nil
	})

	select {
	case <-ctx.Done():
		return TableStats{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return TableStats{}, res.Err
		}
		return res.Val.(TableStats), nil
	}
}

// Wait blocks until all scheduled cache writes have finished.
func (c *Cached) Wait() {
	c.writes.Wait()
}

func (c *Cached) get(ctx context.Context, key string) (TableStats, bool, error) {
	c.mu.Lock()
	stats, ok := c.pending[key]
	c.mu.Unlock()
	if ok {
		return stats, true, nil
	}
	return c.cache.Get(ctx, key)
}

func (c *Cached) lookup(ctx context.Context, key string) (TableStats, bool) {
	stats, ok, err := c.get(ctx, key)
	switch {
	case err != nil:
		c.metrics.cacheLookups.WithLabelValues(cacheError).Inc()
		c.logger.Warn("stats cache read failed", "key", key, "error", err)
		return TableStats{}, false
	case ok:
		c.metrics.cacheLookups.WithLabelValues(cacheHit).Inc()
		return stats, true
	default:
		c.metrics.cacheLookups.WithLabelValues(cacheMiss).Inc()
		return TableStats{}, false
	}
}

// store schedules a cache write that outlives ctx's cancellation.
func (c *Cached) store(ctx context.Context, key string, stats TableStats) {
	c.mu.Lock()
	c.pending[key] = stats
	c.mu.Unlock()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.writeTimeout)
	c.writes.Add(1)
	go func() {
		defer c.writes.Done()
		defer cancel()

		if err := c.cache.Put(writeCtx, key, stats); err != nil {
			c.metrics.cacheWriteErr.Inc()
			c.logger.Warn("stats cache write failed", "key", key, "error", err)
		}

		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}()
}
