package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/core"
)

const mysqlUpsertQuery = `INSERT INTO reply_cache (cache_key, reply, model_used, created_at, expires_at) VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE reply = VALUES(reply), model_used = VALUES(model_used), created_at = VALUES(created_at), expires_at = VALUES(expires_at)`

const mysqlCreateTable = `
	CREATE TABLE IF NOT EXISTS reply_cache (
		cache_key CHAR(64) PRIMARY KEY,
		reply MEDIUMTEXT NOT NULL,
		model_used VARCHAR(255) NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		expires_at BIGINT NOT NULL DEFAULT 0,
		INDEX idx_reply_cache_expires_at (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

// MySQLCache is a MySQL implementation of the CacheRepository interface
type MySQLCache struct {
	*sqlCache
}

var _ core.CacheRepository = (*MySQLCache)(nil)

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	return newMySQLCache(db, logger, cleanupFreq)
}

func newMySQLCache(db *sql.DB, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	if _, err := db.Exec(mysqlCreateTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{sqlCache: newSQLCache(db, mysqlUpsertQuery, logger)}
	cache.startCleanup(cache, cleanupFreq)
	return cache, nil
}

// Get retrieves a cached reply
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	return c.get(ctx, key)
}

// Set stores a cache entry
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	return c.set(ctx, entry)
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, key string) error {
	return c.delete(ctx, key)
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	return c.cleanup(ctx)
}

// Stop stops the cleanup task and closes the connection pool
func (c *MySQLCache) Stop() {
	if err := c.stop(); err != nil {
		c.logger.Error("Failed to close MySQL cache", zap.Error(err))
	}
}
