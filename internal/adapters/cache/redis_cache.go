package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/core"
)

const redisKeyPrefix = "email-writer:reply:"

// RedisCache is a Redis implementation of the CacheRepository interface.
// Expiry is delegated to Redis key TTLs.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

var _ core.CacheRepository = (*RedisCache)(nil)

// NewRedisCache creates a new Redis cache and checks connectivity
func NewRedisCache(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", addr, err)
	}

	return &RedisCache{client: client, logger: logger}, nil
}

// Get retrieves a cached reply
func (c *RedisCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	raw, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		return nil, err
	}
	if entry.Expired(time.Now()) {
		return nil, core.ErrCacheMiss
	}
	return entry, nil
}

// Set stores a cache entry with a TTL derived from its expiry
func (c *RedisCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize cache entry: %w", err)
	}

	ttl := entryTTL(entry, time.Now())
	if ttl < 0 {
		return nil
	}

	if err := c.client.Set(ctx, redisKey(entry.Key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup is a no-op; Redis evicts expired keys itself
func (c *RedisCache) Cleanup(ctx context.Context) error {
	return nil
}

// Stop closes the Redis client
func (c *RedisCache) Stop() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis client", zap.Error(err))
	}
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

// entryTTL returns 0 for entries without expiry and a negative value for
// entries that are already expired.
func entryTTL(entry *core.CacheEntry, now time.Time) time.Duration {
	if entry.ExpiresAt.IsZero() {
		return 0
	}
	ttl := entry.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return -1
	}
	return ttl
}

func decodeEntry(raw []byte) (*core.CacheEntry, error) {
	var entry core.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to deserialize cache entry: %w", err)
	}
	return &entry, nil
}
