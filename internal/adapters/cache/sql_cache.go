package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mikey/email-concierge/internal/core"
	"go.uber.org/zap"
)

// draftRow is the stored shape of a cache entry; times are unix milliseconds
type draftRow struct {
	Key       string `db:"cache_key"`
	Draft     string `db:"draft"`
	CreatedAt int64  `db:"created_at"`
	ExpiresAt int64  `db:"expires_at"`
}

func (r draftRow) entry() *core.CacheEntry {
	return &core.CacheEntry{
		Key:       r.Key,
		Draft:     r.Draft,
		CreatedAt: time.UnixMilli(r.CreatedAt),
		ExpiresAt: time.UnixMilli(r.ExpiresAt),
	}
}

// sqlCache holds the queries shared by the SQL backends. Only the upsert
// statement differs between dialects.
type sqlCache struct {
	db      *sqlx.DB
	logger  *zap.Logger
	upsert  string
	janitor *janitor
}

func (c *sqlCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var row draftRow
	err := c.db.GetContext(ctx, &row, `
		SELECT cache_key, draft, created_at, expires_at
		FROM draft_cache
		WHERE cache_key = ? AND expires_at > ?
	`, key, time.Now().UnixMilli())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}
	return row.entry(), nil
}

func (c *sqlCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	_, err := c.db.NamedExecContext(ctx, c.upsert, draftRow{
		Key:       entry.Key,
		Draft:     entry.Draft,
		CreatedAt: entry.CreatedAt.UnixMilli(),
		ExpiresAt: entry.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

func (c *sqlCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM draft_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (c *sqlCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM draft_cache WHERE expires_at <= ?`, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

func (c *sqlCache) stop(name string) {
	c.janitor.stop()
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close database", zap.String("backend", name), zap.Error(err))
	}
}
