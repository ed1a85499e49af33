package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mikey/email-concierge/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func entry(key, draft string, ttl time.Duration) *core.CacheEntry {
	now := time.Now()
	return &core.CacheEntry{Key: key, Draft: draft, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(zaptest.NewLogger(t), 0)
	defer cache.Stop()

	_, err := cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, entry("k", "hello", time.Hour)))
	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Draft)

	require.NoError(t, cache.Set(ctx, entry("k", "replaced", time.Hour)))
	got, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "replaced", got.Draft)

	require.NoError(t, cache.Delete(ctx, "k"))
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(zaptest.NewLogger(t), 0)
	defer cache.Stop()

	require.NoError(t, cache.Set(ctx, entry("old", "stale", -time.Second)))
	require.NoError(t, cache.Set(ctx, entry("new", "fresh", time.Hour)))

	_, err := cache.Get(ctx, "old")
	assert.ErrorIs(t, err, core.ErrCacheMiss)
	assert.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Cleanup(ctx))
	assert.Equal(t, 1, cache.Len())
}

func TestMemoryCacheBackgroundCleanup(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(zaptest.NewLogger(t), 10*time.Millisecond)
	defer cache.Stop()

	require.NoError(t, cache.Set(ctx, entry("old", "stale", -time.Second)))
	assert.Eventually(t, func() bool { return cache.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestStopTwice(t *testing.T) {
	cache := NewMemoryCache(zaptest.NewLogger(t), time.Hour)
	cache.Stop()
	cache.Stop()
}
