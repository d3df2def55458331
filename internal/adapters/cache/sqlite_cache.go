package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/core"
)

const sqliteUpsertQuery = `INSERT OR REPLACE INTO reply_cache (cache_key, reply, model_used, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`

// SQLiteCache is a SQLite implementation of the CacheRepository interface
type SQLiteCache struct {
	*sqlCache
}

var _ core.CacheRepository = (*SQLiteCache)(nil)

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reply_cache (
			cache_key TEXT PRIMARY KEY,
			reply TEXT NOT NULL,
			model_used TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_reply_cache_expires_at ON reply_cache(expires_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{sqlCache: newSQLCache(db, sqliteUpsertQuery, logger)}
	cache.startCleanup(cache, cleanupFreq)
	return cache, nil
}

// Get retrieves a cached reply
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	return c.get(ctx, key)
}

// Set stores a cache entry
func (c *SQLiteCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	return c.set(ctx, entry)
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	return c.delete(ctx, key)
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	return c.cleanup(ctx)
}

// Stop stops the cleanup task and closes the database
func (c *SQLiteCache) Stop() {
	if err := c.stop(); err != nil {
		c.logger.Error("Failed to close SQLite cache", zap.Error(err))
	}
}
