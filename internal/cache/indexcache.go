// Package cache implements the coherent multi-index directory cache: six
// size- and TTL-bounded index caches (Index) plus the orchestrator that
// keeps them mutually consistent (DirectoryCache).
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// ErrNoLoader is returned by Get on a cache built without a Loader (cache 6,
// groupsToUsers, is intentionally loader-less — see spec §4.1/§9).
var ErrNoLoader = errors.New("cache: no loader configured")

// Loader computes the value for key on a miss. A not-found condition must be
// signalled with a distinguishable sentinel error (the caller wraps it, it
// does not compare error strings).
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// OnEvict is invoked for every removal — explicit Invalidate, TTL expiry, or
// size eviction — with the evicted key/value pair. Implementations must only
// mutate *other* index caches, never call back into the cache currently
// evicting (spec §4.1 "removal-listener reentrancy", §5 deadlock avoidance).
type OnEvict[K comparable, V any] func(key K, value V)

// Index is one of the six size+TTL-bounded caches. It wraps an expirable LRU
// for the bound/eviction-callback primitive and a singleflight.Group so that
// concurrent misses on the same key run the loader exactly once (spec §5).
type Index[K comparable, V any] struct {
	lru    *lru.LRU[K, V]
	group  singleflight.Group
	loader Loader[K, V]
}

// NewIndex builds one index cache. loader may be nil (cache 6): a miss then
// means "not yet materialized", and Get returns ErrNoLoader — callers of a
// loader-less cache must use Peek instead.
func NewIndex[K comparable, V any](size int, ttl time.Duration, loader Loader[K, V], onEvict OnEvict[K, V]) *Index[K, V] {
	var cb lru.EvictCallback[K, V]
	if onEvict != nil {
		cb = lru.EvictCallback[K, V](onEvict)
	}
	return &Index[K, V]{
		lru:    lru.NewLRU[K, V](size, cb, ttl),
		loader: loader,
	}
}

// Peek returns the cached value without triggering the loader. This is the
// "getIfPresent" primitive the coherence layer uses for short-circuit checks
// and for reading cache 6 (which has no loader at all).
func (c *Index[K, V]) Peek(key K) (V, bool) {
	return c.lru.Get(key)
}

// Put installs value under key, refreshing its TTL and LRU recency.
func (c *Index[K, V]) Put(key K, value V) {
	c.lru.Add(key, value)
}

// Invalidate evicts key if present, running the removal listener exactly as
// a TTL or size eviction would.
func (c *Index[K, V]) Invalidate(key K) {
	c.lru.Remove(key)
}

// InvalidateAll evicts every entry, firing the removal listener for each
// (spec §4.2 clear()).
func (c *Index[K, V]) InvalidateAll() {
	c.lru.Purge()
}

// Get returns the cached value for key, loading it through Loader on a miss.
// Concurrent Get calls for the same key coalesce onto a single Loader
// invocation.
func (c *Index[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}
	if c.loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	sfKey := fmt.Sprint(key)
	v, err, _ := c.group.Do(sfKey, func() (any, error) {
		// Re-check: another goroutine may have populated the entry while we
		// were waiting to enter the singleflight critical section.
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		val, err := c.loader(ctx, key)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, val)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
