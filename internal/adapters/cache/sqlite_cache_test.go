package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/email-concierge/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSQLiteCache(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drafts.db")

	cache, err := NewSQLiteCache(path, zaptest.NewLogger(t), 0)
	require.NoError(t, err)

	_, err = cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, entry("k", "first", time.Hour)))
	require.NoError(t, cache.Set(ctx, entry("k", "second", time.Hour)))
	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Draft)
	assert.Equal(t, "k", got.Key)

	require.NoError(t, cache.Set(ctx, entry("old", "stale", -time.Minute)))
	_, err = cache.Get(ctx, "old")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, cache.Cleanup(ctx))
	require.NoError(t, cache.Delete(ctx, "k"))
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	cache.Stop()
}

func TestSQLiteCachePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drafts.db")

	first, err := NewSQLiteCache(path, zaptest.NewLogger(t), 0)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, entry("k", "kept", time.Hour)))
	first.Stop()

	second, err := NewSQLiteCache(path, zaptest.NewLogger(t), 0)
	require.NoError(t, err)
	defer second.Stop()

	got, err := second.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Draft)
}

func TestMySQLCache(t *testing.T) {
	dsn := os.Getenv("CONCIERGE_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("CONCIERGE_TEST_MYSQL_DSN not set")
	}
	ctx := context.Background()

	cache, err := NewMySQLCache(dsn, zaptest.NewLogger(t), 0)
	require.NoError(t, err)
	defer cache.Stop()

	key := "test-" + time.Now().Format("150405.000000")
	require.NoError(t, cache.Set(ctx, entry(key, "draft", time.Hour)))
	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "draft", got.Draft)
	require.NoError(t, cache.Delete(ctx, key))
}
