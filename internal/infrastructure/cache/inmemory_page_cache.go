package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

const defaultCleanupInterval = time.Minute

type pageEntry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryPageCache implements PageCache with a map. Pages are not shared
// between instances.
type InMemoryPageCache struct {
	mu        sync.RWMutex
	entries   map[string]pageEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryPageCache creates the cache and starts the expiry sweeper
func NewInMemoryPageCache() *InMemoryPageCache {
	return newInMemoryPageCache(defaultCleanupInterval, time.Now)
}

func newInMemoryPageCache(interval time.Duration, now func() time.Time) *InMemoryPageCache {
	c := &InMemoryPageCache{
		entries:  make(map[string]pageEntry),
		now:      now,
		stopChan: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.cleanupLoop(interval)
	return c
}

// Get returns a live entry
func (c *InMemoryPageCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a copy of value
func (c *InMemoryPageCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = pageEntry{value: stored, expiresAt: c.now().Add(ttl)}
	return nil
}

// InvalidatePrefix drops matching entries
func (c *InMemoryPageCache) InvalidatePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			n++
		}
	}
	return n, nil
}

// Close stops the sweeper. Safe to call more than once.
func (c *InMemoryPageCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of stored entries, expired or not
func (c *InMemoryPageCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemoryPageCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryPageCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

var _ PageCache = (*InMemoryPageCache)(nil)
