package stats

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iceberg-lens/cache"
	"iceberg-lens/storage"
)

type countingComputer struct {
	calls   atomic.Int32
	release chan struct{}
	result  TableStats
	err     error
}

func (c *countingComputer) Compute(ctx context.Context, _ string, _ storage.Credentials) (TableStats, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	return c.result, c.err
}

type mapCache struct {
	mu     sync.Mutex
	values map[string]TableStats
	getErr error
	putErr error
	puts   int
}

func newMapCache() *mapCache {
	return &mapCache{values: map[string]TableStats{}}
}

func (m *mapCache) Get(_ context.Context, key string) (TableStats, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return TableStats{}, false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapCache) Put(_ context.Context, key string, value TableStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.values[key] = value
	return nil
}

func (m *mapCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

const location = "s3://warehouse/db/t/metadata/snap-1.avro"

func TestCachedComputesOnce(t *testing.T) {
	next := &countingComputer{result: TableStats{TotalRecords: 5, TotalDataFiles: 1}}
	store := newMapCache()
	c := NewCached(next, store, NewMetrics(nil), discardLogger())

	for i := 0; i < 3; i++ {
		stats, err := c.Compute(context.Background(), location, storage.Credentials{})
		require.NoError(t, err)
		assert.Equal(t, next.result, stats)
	}
	c.Wait()

	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 1, store.puts)
	assert.True(t, store.has(CacheKey(location)))
}

func TestCachedServesFromCache(t *testing.T) {
	next := &countingComputer{}
	store := newMapCache()
	store.values[CacheKey(location)] = TableStats{TotalRecords: 9}
	metrics := NewMetrics(nil)
	c := NewCached(next, store, metrics, discardLogger())

	stats, err := c.Compute(context.Background(), location, storage.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, TableStats{TotalRecords: 9}, stats)
	assert.Zero(t, next.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues(cacheHit)))
}

func TestCachedDeduplicatesConcurrentCalls(t *testing.T) {
	next := &countingComputer{release: make(chan struct{}), result: TableStats{TotalRecords: 1}}
	c := NewCached(next, newMapCache(), NewMetrics(nil), discardLogger())

	const callers = 16
	var wg sync.WaitGroup
	results := make([]TableStats, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Compute(context.Background(), location, storage.Credentials{})
		}(i)
	}

	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(next.release)
	wg.Wait()
	c.Wait()

	assert.Equal(t, int32(1), next.calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, TableStats{TotalRecords: 1}, results[i])
	}
}

func TestCachedDistinctLocations(t *testing.T) {
	next := &countingComputer{}
	c := NewCached(next, newMapCache(), NewMetrics(nil), discardLogger())

	_, err := c.Compute(context.Background(), "s3://b/one.avro", storage.Credentials{})
	require.NoError(t, err)
	_, err = c.Compute(context.Background(), "s3://b/two.avro", storage.Credentials{})
	require.NoError(t, err)
	c.Wait()

	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedSwallowsCacheErrors(t *testing.T) {
	next := &countingComputer{result: TableStats{TotalRecords: 3}}
	store := newMapCache()
	store.getErr = errors.New("cache unreachable")
	store.putErr = errors.New("cache full")
	metrics := NewMetrics(nil)
	c := NewCached(next, store, metrics, discardLogger())

	stats, err := c.Compute(context.Background(), location, storage.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, TableStats{TotalRecords: 3}, stats)
	c.Wait()

	assert.Equal(t, 1, store.puts)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheWriteErr))
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues(cacheError)), 1.0)
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	next := &countingComputer{err: errors.New("fetch failed")}
	store := newMapCache()
	c := NewCached(next, store, NewMetrics(nil), discardLogger())

	for i := 0; i < 2; i++ {
		_, err := c.Compute(context.Background(), location, storage.Credentials{})
		require.Error(t, err)
	}
	c.Wait()

	assert.Equal(t, int32(2), next.calls.Load())
	assert.Zero(t, store.puts)
}

func TestCachedCallerCancellation(t *testing.T) {
	next := &countingComputer{release: make(chan struct{}), result: TableStats{TotalRecords: 8}}
	store := newMapCache()
	c := NewCached(next, store, NewMetrics(nil), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Compute(ctx, location, storage.Credentials{})
		done <- err
	}()

	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Compute did not return after cancellation")
	}

	// The computation finishes after the caller left; its write still lands.
	close(next.release)
	require.Eventually(t, func() bool { return store.has(CacheKey(location)) }, time.Second, time.Millisecond)
	c.Wait()
}

func TestCachedWithStoreCache(t *testing.T) {
	next := &countingComputer{result: TableStats{TotalRecords: 42, TotalDataFiles: 7}}
	store := NewStoreCache(cache.NewMemory(10))

	first := NewCached(next, store, NewMetrics(nil), discardLogger(), WithWriteTimeout(time.Second))
	_, err := first.Compute(context.Background(), location, storage.Credentials{})
	require.NoError(t, err)
	first.Wait()

	// A fresh wrapper over the same store sees the persisted value.
	second := NewCached(next, store, NewMetrics(nil), discardLogger())
	stats, err := second.Compute(context.Background(), location, storage.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, TableStats{TotalRecords: 42, TotalDataFiles: 7}, stats)
	assert.Equal(t, int32(1), next.calls.Load())
}
