package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// LocalCache is the in-process catalog cache used when Redis is not
// configured. It holds at most maxEntries keys.
type LocalCache struct {
	data       map[string]cacheEntry
	maxEntries int
	mu         sync.RWMutex
	log        *zap.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewLocalCache creates a new in-memory cache with periodic cleanup
func NewLocalCache(cleanupInterval time.Duration, maxEntries int, log *zap.Logger) *LocalCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}

	c := &LocalCache{
		data:       make(map[string]cacheEntry),
		maxEntries: maxEntries,
		log:        log,
		stopCh:     make(chan struct{}),
	}

	go c.cleanupLoop(cleanupInterval)

	log.Info("Local in-memory cache initialized",
		zap.Duration("cleanup_interval", cleanupInterval),
		zap.Int("max_entries", maxEntries),
	)
	return c
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || entry.expired(time.Now()) {
		return "", ErrMiss
	}

	return entry.value, nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	strVal, err := encode(value)
	if err != nil {
		return err
	}

	entry := cacheEntry{value: strVal}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxEntries {
		c.evictLocked()
	}
	c.data[key] = entry
	return nil
}

// evictLocked drops expired entries, or one arbitrary entry when none expired.
func (c *LocalCache) evictLocked() {
	if c.removeExpiredLocked(time.Now()) > 0 {
		return
	}
	for key := range c.data {
		delete(c.data, key)
		return
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *LocalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *LocalCache) Ping() error {
	return nil
}

func (c *LocalCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}

func (c *LocalCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

func (c *LocalCache) cleanup() {
	c.mu.Lock()
	expired := c.removeExpiredLocked(time.Now())
	c.mu.Unlock()

	if expired > 0 {
		c.log.Debug("Cache cleanup completed", zap.Int("expired_entries", expired))
	}
}

func (c *LocalCache) removeExpiredLocked(now time.Time) int {
	removed := 0
	for key, entry := range c.data {
		if entry.expired(now) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}
