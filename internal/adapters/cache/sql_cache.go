package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/core"
)

// sqlCache holds the queries shared by the SQL-backed caches. Timestamps are
// stored as unix seconds; an expires_at of 0 never expires.
type sqlCache struct {
	db          *sql.DB
	logger      *zap.Logger
	upsertQuery string
	stopCh      chan struct{}
	stopOnce    sync.Once
}

const (
	selectEntryQuery  = `SELECT cache_key, reply, model_used, created_at, expires_at FROM reply_cache WHERE cache_key = ? AND (expires_at = 0 OR expires_at > ?)`
	deleteEntryQuery  = `DELETE FROM reply_cache WHERE cache_key = ?`
	cleanupEntryQuery = `DELETE FROM reply_cache WHERE expires_at <> 0 AND expires_at <= ?`
)

func newSQLCache(db *sql.DB, upsertQuery string, logger *zap.Logger) *sqlCache {
	return &sqlCache{
		db:          db,
		logger:      logger,
		upsertQuery: upsertQuery,
		stopCh:      make(chan struct{}),
	}
}

func (c *sqlCache) startCleanup(repo core.CacheRepository, cleanupFreq time.Duration) {
	if cleanupFreq > 0 {
		go startCleanupTask(repo, cleanupFreq, c.stopCh, c.logger)
	}
}

func (c *sqlCache) get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var (
		entry     core.CacheEntry
		createdAt int64
		expiresAt int64
	)

	err := c.db.QueryRowContext(ctx, selectEntryQuery, key, time.Now().Unix()).
		Scan(&entry.Key, &entry.Reply, &entry.ModelUsed, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	entry.CreatedAt = time.Unix(createdAt, 0)
	if expiresAt != 0 {
		entry.ExpiresAt = time.Unix(expiresAt, 0)
	}

	return &entry, nil
}

func (c *sqlCache) set(ctx context.Context, entry *core.CacheEntry) error {
	var expiresAt int64
	if !entry.ExpiresAt.IsZero() {
		expiresAt = entry.ExpiresAt.Unix()
	}

	_, err := c.db.ExecContext(ctx, c.upsertQuery,
		entry.Key, entry.Reply, entry.ModelUsed, entry.CreatedAt.Unix(), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

func (c *sqlCache) delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, deleteEntryQuery, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (c *sqlCache) cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, cleanupEntryQuery, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	return nil
}

func (c *sqlCache) stop() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return c.db.Close()
}
