package cache

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the DraftCache interface
type MySQLCache struct {
	*sqlCache
}

// NewMySQLCache connects to MySQL and prepares the cache table
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS draft_cache (
			cache_key CHAR(64) PRIMARY KEY,
			draft MEDIUMTEXT NOT NULL,
			created_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			INDEX idx_draft_cache_expires_at (expires_at)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	c := &MySQLCache{sqlCache: &sqlCache{
		db:     db,
		logger: logger,
		upsert: `
			INSERT INTO draft_cache (cache_key, draft, created_at, expires_at)
			VALUES (:cache_key, :draft, :created_at, :expires_at)
			ON DUPLICATE KEY UPDATE
				draft = VALUES(draft),
				created_at = VALUES(created_at),
				expires_at = VALUES(expires_at)
		`,
	}}
	c.janitor = startJanitor(c, logger, cleanupFreq)

	return c, nil
}

// Stop stops the background cleanup task and closes the database connection
func (c *MySQLCache) Stop() {
	c.stop("mysql")
}
