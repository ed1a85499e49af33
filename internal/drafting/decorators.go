package drafting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/email-concierge/internal/core"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrDisabled is returned by the drafter used when no provider is configured
var ErrDisabled = errors.New("drafting is disabled")

// Disabled is a drafter that always fails with ErrDisabled
type Disabled struct{}

// Draft implements core.Drafter
func (Disabled) Draft(context.Context, core.DraftRequest) (string, error) {
	return "", ErrDisabled
}

// CachingDrafter reuses drafts for identical requests within a TTL
type CachingDrafter struct {
	next   core.Drafter
	cache  core.DraftCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingDrafter wraps next with cache
func NewCachingDrafter(next core.Drafter, cache core.DraftCache, ttl time.Duration, logger *zap.Logger) *CachingDrafter {
	return &CachingDrafter{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Draft implements core.Drafter. Cache failures are logged and never fail the draft.
func (d *CachingDrafter) Draft(ctx context.Context, req core.DraftRequest) (string, error) {
	key := CacheKey(req)

	entry, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		d.logger.Debug("Draft cache hit", zap.String("sender", req.Sender))
		return entry.Draft, nil
	case !errors.Is(err, core.ErrCacheMiss):
		d.logger.Warn("Failed to read draft cache", zap.Error(err))
	}

	draft, err := d.next.Draft(ctx, req)
	if err != nil {
		return "", err
	}

	now := time.Now()
	if err := d.cache.Set(ctx, &core.CacheEntry{
		Key:       key,
		Draft:     draft,
		CreatedAt: now,
		ExpiresAt: now.Add(d.ttl),
	}); err != nil {
		d.logger.Error("Failed to update draft cache", zap.Error(err))
	}

	return draft, nil
}

// Close closes the wrapped drafter if it holds resources
func (d *CachingDrafter) Close() error {
	return closeDrafter(d.next)
}

// LimitedDrafter throttles calls to the wrapped drafter
type LimitedDrafter struct {
	next    core.Drafter
	limiter *rate.Limiter
}

// NewLimitedDrafter allows perSecond calls with the given burst
func NewLimitedDrafter(next core.Drafter, perSecond float64, burst int) *LimitedDrafter {
	if burst < 1 {
		burst = 1
	}
	return &LimitedDrafter{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Draft implements core.Drafter
func (d *LimitedDrafter) Draft(ctx context.Context, req core.DraftRequest) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("drafting rate limit wait: %w", err)
	}
	return d.next.Draft(ctx, req)
}

// Close closes the wrapped drafter if it holds resources
func (d *LimitedDrafter) Close() error {
	return closeDrafter(d.next)
}

func closeDrafter(d core.Drafter) error {
	if closer, ok := d.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
