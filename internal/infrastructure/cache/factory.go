package cache

import (
	"fmt"

	"github.com/shopadmin/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// PageCacheFactory creates a page cache from configuration
type PageCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// PageCacheFactoryOption configures the factory
type PageCacheFactoryOption func(*PageCacheFactory)

// WithLogger sets the factory logger
func WithLogger(logger *zap.Logger) PageCacheFactoryOption {
	return func(f *PageCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// memory. Default true.
func WithInMemoryFallback(allow bool) PageCacheFactoryOption {
	return func(f *PageCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewPageCacheFactory creates a factory
func NewPageCacheFactory(cfg config.RedisConfig, opts ...PageCacheFactoryOption) *PageCacheFactory {
	f := &PageCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache connects to the configured Redis
func (f *PageCacheFactory) CreateRedisCache() (PageCache, error) {
	c, err := NewRedisPageCache(RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis page cache: %w", err)
	}
	return c, nil
}

// CreateCache returns a Redis cache when enabled and reachable, otherwise
// an in-memory one if fallback is allowed
func (f *PageCacheFactory) CreateCache() (PageCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory page cache")
		return NewInMemoryPageCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("Using Redis page cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for page cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory page cache. "+
		"Instances will not share cached pages.",
		zap.Error(err),
	)
	return NewInMemoryPageCache(), nil
}
