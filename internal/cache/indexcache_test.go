package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexGetLoadsOnMiss(t *testing.T) {
	idx := NewIndex(10, time.Minute, func(_ context.Context, key string) (int, error) {
		return len(key), nil
	}, nil)

	v, err := idx.Get(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, ok := idx.Peek("hello")
	assert.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestIndexGetPropagatesLoaderError(t *testing.T) {
	sentinel := errors.New("boom")
	idx := NewIndex(10, time.Minute, func(_ context.Context, _ string) (int, error) {
		return 0, sentinel
	}, nil)

	_, err := idx.Get(context.Background(), "x")
	assert.ErrorIs(t, err, sentinel)
}

func TestIndexNoLoaderReturnsErrNoLoader(t *testing.T) {
	idx := NewIndex[string, int](10, time.Minute, nil, nil)
	_, err := idx.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoLoader)
}

func TestIndexSingleFlightCoalescesConcurrentLoads(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	idx := NewIndex(10, time.Minute, func(_ context.Context, key string) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}, nil)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := idx.Get(context.Background(), "shared")
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestIndexInvalidateFiresOnEvict(t *testing.T) {
	var evicted []string
	idx := NewIndex(10, time.Minute, func(_ context.Context, key string) (int, error) {
		return 1, nil
	}, func(key string, _ int) {
		evicted = append(evicted, key)
	})

	_, err := idx.Get(context.Background(), "a")
	require.NoError(t, err)
	idx.Invalidate("a")

	assert.Equal(t, []string{"a"}, evicted)
	_, ok := idx.Peek("a")
	assert.False(t, ok)
}

func TestIndexSizeEvictionFiresOnEvict(t *testing.T) {
	var evicted []string
	idx := NewIndex(2, time.Minute, nil, func(key string, _ int) {
		evicted = append(evicted, key)
	})

	idx.Put("a", 1)
	idx.Put("b", 2)
	idx.Put("c", 3) // evicts "a", the least-recently-used entry

	assert.Equal(t, []string{"a"}, evicted)
	_, ok := idx.Peek("a")
	assert.False(t, ok)
	_, ok = idx.Peek("c")
	assert.True(t, ok)
}

func TestIndexTTLEvictionFiresOnEvict(t *testing.T) {
	var evicted int32
	idx := NewIndex(10, 20*time.Millisecond, nil, func(_ string, _ int) {
		atomic.AddInt32(&evicted, 1)
	})

	idx.Put("a", 1)
	require.Eventually(t, func() bool {
		_, ok := idx.Peek("a")
		return !ok
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&evicted))
}

func TestIndexInvalidateAllFiresForEveryEntry(t *testing.T) {
	var evicted int32
	idx := NewIndex(10, time.Minute, nil, func(_ string, _ int) {
		atomic.AddInt32(&evicted, 1)
	})
	idx.Put("a", 1)
	idx.Put("b", 2)
	idx.Put("c", 3)

	idx.InvalidateAll()

	assert.Equal(t, int32(3), atomic.LoadInt32(&evicted))
}
