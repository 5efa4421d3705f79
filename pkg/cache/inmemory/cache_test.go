package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCacheDefaultsOnNilConfig(t *testing.T) {
	c, err := NewCache(nil)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNewCacheRejectsNegativeDurations(t *testing.T) {
	_, err := NewCache(&Config{DefaultExpiration: -1, CleanupInterval: 600})
	assert.Error(t, err)
}

func TestSetAndGetRoundTrip(t *testing.T) {
	c, err := NewCache(&Config{DefaultExpiration: 300, CleanupInterval: 600})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "team:42", "engineering", 0))

	val, err := c.Get(ctx, "team:42")
	require.NoError(t, err)
	assert.Equal(t, "engineering", val)
}

func TestGetMissingKeyErrors(t *testing.T) {
	c, err := NewCache(&Config{DefaultExpiration: 300, CleanupInterval: 600})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestDeleteRemovesKey(t *testing.T) {
	c, err := NewCache(&Config{DefaultExpiration: 300, CleanupInterval: 600})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err = c.Get(ctx, "k")
	assert.Error(t, err)
}

func TestGetByPatternMatchesPrefix(t *testing.T) {
	c, err := NewCache(&Config{DefaultExpiration: 300, CleanupInterval: 600})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "team:1", "a", 0))
	require.NoError(t, c.Set(ctx, "team:2", "b", 0))
	require.NoError(t, c.Set(ctx, "user:1", "c", 0))

	got, err := c.GetByPattern(ctx, "team:*")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "team:1")
	assert.Contains(t, got, "team:2")
}

func TestValueExpiresAfterTTL(t *testing.T) {
	c, err := NewCache(&Config{DefaultExpiration: 300, CleanupInterval: 600})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "v", 10*time.Millisecond))
	require.Eventually(t, func() bool {
		_, err := c.Get(ctx, "short")
		return err != nil
	}, time.Second, 5*time.Millisecond)
}
