package core

import (
	"context"
	"errors"
)

var (
	// ErrDrafting is wrapped by every error returned when a draft could not be produced
	ErrDrafting = errors.New("drafting failed")
	// ErrCacheMiss is returned when a draft is not cached or has expired
	ErrCacheMiss = errors.New("cache entry not found")
)

// Drafter generates reply text for an email
type Drafter interface {
	// Draft returns the reply text or an upstream error
	Draft(ctx context.Context, req DraftRequest) (string, error)
}

// DraftCache defines the interface for caching generated drafts
type DraftCache interface {
	// Get retrieves a live entry by key, or ErrCacheMiss
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
