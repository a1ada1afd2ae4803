package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/ports"
)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// LocalCache implements the ports.Cache interface using an in-memory map.
// Used as a fallback when Redis is unavailable. MaxEntries bounds memory use
// for recommendation responses; when full, expired entries are purged first
// and then an arbitrary entry is evicted.
type LocalCache struct {
	data       map[string]cacheEntry
	maxEntries int
	mu         sync.RWMutex
	log        *zap.Logger
	stopCh     chan struct{}
	closeOnce  sync.Once
}

// NewLocalCache creates a new in-memory cache with periodic cleanup.
// maxEntries <= 0 means unbounded.
func NewLocalCache(cleanupInterval time.Duration, maxEntries int, log *zap.Logger) ports.Cache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
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
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMiss, key)
	}

	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		return "", fmt.Errorf("%w: %s expired", ErrMiss, key)
	}

	return entry.value, nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	strVal, err := encode(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{value: strVal}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.evictLocked()
	}

	c.data[key] = entry
	return nil
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
	c.closeOnce.Do(func() { close(c.stopCh) })
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *LocalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *LocalCache) evictLocked() {
	if c.purgeExpiredLocked(time.Now()) > 0 {
		return
	}
	for key := range c.data {
		delete(c.data, key)
		return
	}
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
	expired := c.purgeExpiredLocked(time.Now())
	c.mu.Unlock()

	if expired > 0 {
		c.log.Debug("Cache cleanup completed", zap.Int("expired_entries", expired))
	}
}

func (c *LocalCache) purgeExpiredLocked(now time.Time) int {
	expired := 0
	for key, entry := range c.data {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			delete(c.data, key)
			expired++
		}
	}
	return expired
}
