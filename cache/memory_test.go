package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetPut(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	value := []byte("v1")
	require.NoError(t, m.Put(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	got[0] = 'y'
	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), again)

	require.NoError(t, m.Put(ctx, "k", []byte("v2")))
	got, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	require.NoError(t, m.Put(ctx, "a", []byte("1")))
	require.NoError(t, m.Put(ctx, "b", []byte("2")))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, m.Put(ctx, "c", []byte("3")))

	assert.Equal(t, 2, m.Len())
	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(50)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (i*100+j)%80)
				_ = m.Put(ctx, key, []byte(key))
				_, _ = m.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, m.Len(), 50)
}
