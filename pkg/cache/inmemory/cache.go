// Package inmemory is a process-local stand-in for a Redis-backed key/value
// cache, used where a directory.Gateway wants a small
// memoization layer of its own without a network round trip — the
// gitlabdirectory adapter's team-lookup cache, for instance. It is
// deliberately NOT the coherence-critical index cache (see internal/cache):
// it has no removal-listener contract and no notion of siblings to keep
// consistent.
package inmemory

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Config is plain fields, no functional options. DefaultExpiration and
// CleanupInterval are seconds.
type Config struct {
	DefaultExpiration int64
	CleanupInterval   int64
}

// Cache wraps a patrickmn/go-cache instance behind a narrow string-keyed
// Get/Set/Delete surface.
type Cache struct {
	c *gocache.Cache
}

// NewCache builds a Cache. A nil config falls back to a five-minute default
// expiration with a ten-minute cleanup sweep.
func NewCache(config *Config) (*Cache, error) {
	if config == nil {
		config = &Config{DefaultExpiration: 300, CleanupInterval: 600}
	}
	if config.DefaultExpiration < 0 || config.CleanupInterval < 0 {
		return nil, fmt.Errorf("inmemory: expiration and cleanup interval must be non-negative")
	}
	c := gocache.New(
		time.Duration(config.DefaultExpiration)*time.Second,
		time.Duration(config.CleanupInterval)*time.Second,
	)
	return &Cache{c: c}, nil
}

// Set stores value under key for ttl; a ttl of 0 uses the cache's default
// expiration.
func (c *Cache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.c.Set(key, value, ttl)
	return nil
}

// Get returns the value stored under key, or an error if absent.
func (c *Cache) Get(_ context.Context, key string) (interface{}, error) {
	val, ok := c.c.Get(key)
	if !ok {
		return "", fmt.Errorf("inmemory: key %q not found", key)
	}
	return val, nil
}

// GetByPattern returns every entry whose key starts with keyPattern, after
// one trailing "*" is dropped from it — the fixed-prefix case of a Redis
// SCAN glob. Other glob characters are matched literally.
func (c *Cache) GetByPattern(_ context.Context, keyPattern string) (map[string]interface{}, error) {
	prefix := keyPattern
	if len(prefix) > 0 && prefix[len(prefix)-1] == '*' {
		prefix = prefix[:len(prefix)-1]
	}
	items := c.c.Items()
	values := make(map[string]interface{}, len(items))
	for k, item := range items {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			values[k] = item.Object
		}
	}
	return values, nil
}

// Delete removes key, if present.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Delete(key)
	return nil
}

// Disconnect is a no-op; there is no connection to release.
func (c *Cache) Disconnect() error {
	return nil
}
