// Package cache stores rendered list pages keyed by resource and canonical query.
package cache

import (
	"context"
	"time"
)

// PageCache stores encoded list pages
type PageCache interface {
	// Get returns the cached value and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// InvalidatePrefix drops every key starting with prefix
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
	// Close releases resources
	Close() error
}

// Key joins a resource and a canonical query into a cache key
func Key(resource, canonicalQuery string) string {
	return resource + "?" + canonicalQuery
}

// ResourcePrefix returns the key prefix shared by all pages of a resource
func ResourcePrefix(resource string) string {
	return resource + "?"
}

// Pinger is implemented by caches backed by a remote store
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks a cache's backing store; local caches are always healthy
func Ping(ctx context.Context, c PageCache) error {
	if p, ok := c.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
