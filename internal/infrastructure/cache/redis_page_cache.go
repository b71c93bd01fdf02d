package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "shop:page:"
	scanBatch        = 200
)

// RedisPageCache implements PageCache on Redis so every instance sees the
// same pages
type RedisPageCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisPageCache connects and pings Redis
func NewRedisPageCache(cfg RedisConfig) (*RedisPageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisPageCacheWithClient(client, ""), nil
}

// NewRedisPageCacheWithClient wraps an existing client
func NewRedisPageCacheWithClient(client *redis.Client, keyPrefix string) *RedisPageCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisPageCache{client: client, keyPrefix: keyPrefix}
}

// Get reads a page
func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached page: %w", err)
	}
	return value, true, nil
}

// Set writes a page with expiry
func (c *RedisPageCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}

// InvalidatePrefix scans and deletes matching keys
func (c *RedisPageCache) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	pattern := c.keyPrefix + escapeGlob(prefix) + "*"
	iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()

	deleted := 0
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("failed to invalidate cached pages: %w", err)
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan cached pages: %w", err)
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// Ping checks the Redis connection
func (c *RedisPageCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisPageCache) Close() error {
	return c.client.Close()
}

// escapeGlob escapes the characters SCAN MATCH treats specially
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

var _ PageCache = (*RedisPageCache)(nil)
