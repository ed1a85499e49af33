package drafting

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mikey/email-concierge/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingDrafter struct {
	mu     sync.Mutex
	calls  int
	draft  string
	err    error
	closed bool
}

func (d *countingDrafter) Draft(context.Context, core.DraftRequest) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.draft, d.err
}

func (d *countingDrafter) Close() error {
	d.closed = true
	return nil
}

type mapCache struct {
	entries map[string]*core.CacheEntry
	getErr  error
	setErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]*core.CacheEntry{}}
}

func (c *mapCache) Get(_ context.Context, key string) (*core.CacheEntry, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, core.ErrCacheMiss
	}
	return e, nil
}

func (c *mapCache) Set(_ context.Context, e *core.CacheEntry) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[e.Key] = e
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *mapCache) Cleanup(context.Context) error { return nil }

var req = core.DraftRequest{
	Sender:    "Jane <jane@example.com>",
	Subject:   "Lunch?",
	Body:      "Are you free Thursday?",
	UserNotes: "Prefer Friday",
}

func TestFormatUserInput(t *testing.T) {
	out := FormatUserInput(req, "short body")

	assert.Contains(t, out, "Sender: Jane <jane@example.com>")
	assert.Contains(t, out, "Subject: Lunch?")
	assert.Contains(t, out, "short body")
	assert.NotContains(t, out, "Are you free Thursday?")
	assert.Contains(t, out, "Prefer Friday")
	assert.Contains(t, SystemInstructions, DraftPrefix)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey(req), CacheKey(req))
	assert.Len(t, CacheKey(req), 64)

	other := req
	other.UserNotes = ""
	assert.NotEqual(t, CacheKey(req), CacheKey(other))

	// field boundaries matter
	a := core.DraftRequest{Sender: "ab", Subject: "c"}
	b := core.DraftRequest{Sender: "a", Subject: "bc"}
	assert.NotEqual(t, CacheKey(a), CacheKey(b))
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Draft(context.Background(), req)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestCachingDrafter(t *testing.T) {
	next := &countingDrafter{draft: "Draft reply (AI): Sure."}
	cache := newMapCache()
	d := NewCachingDrafter(next, cache, time.Hour, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		got, err := d.Draft(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Draft reply (AI): Sure.", got)
	}
	assert.Equal(t, 1, next.calls)
	assert.Contains(t, cache.entries, CacheKey(req))

	require.NoError(t, d.Close())
	assert.True(t, next.closed)
}

func TestCachingDrafterCacheFailures(t *testing.T) {
	next := &countingDrafter{draft: "ok"}
	cache := newMapCache()
	cache.getErr = errors.New("db down")
	cache.setErr = errors.New("db down")
	d := NewCachingDrafter(next, cache, time.Hour, zaptest.NewLogger(t))

	got, err := d.Draft(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, next.calls)
}

func TestCachingDrafterDoesNotCacheErrors(t *testing.T) {
	next := &countingDrafter{err: errors.New("provider down")}
	cache := newMapCache()
	d := NewCachingDrafter(next, cache, time.Hour, zaptest.NewLogger(t))

	_, err := d.Draft(context.Background(), req)
	require.Error(t, err)
	assert.Empty(t, cache.entries)
}

func TestLimitedDrafter(t *testing.T) {
	next := &countingDrafter{draft: "ok"}
	d := NewLimitedDrafter(next, 0.001, 1)

	got, err := d.Draft(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = d.Draft(ctx, req)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "drafting rate limit wait"))
	assert.Equal(t, 1, next.calls)
}
