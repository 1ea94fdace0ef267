// Package cache provides a small thread-safe in-memory TTL cache, used
// to keep resolved channel metadata from being re-fetched on every
// lookup.
package cache

import (
	"sync"
	"time"
)

type item struct {
	value     interface{}
	expiresAt time.Time
}

func (i *item) expired() bool {
	return time.Now().After(i.expiresAt)
}

// Cache maps string keys to values with a per-entry TTL. Expired
// entries are dropped lazily on read and swept periodically.
type Cache struct {
	mu         sync.RWMutex
	items      map[string]*item
	defaultTTL time.Duration

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// New creates a cache; defaultTTL applies to Set.
func New(defaultTTL time.Duration) *Cache {
	c := &Cache{
		items:      make(map[string]*item),
		defaultTTL: defaultTTL,
		stopSweep:  make(chan struct{}),
	}
	go c.sweep(defaultTTL)
	return c
}

// Get returns the cached value for key, or false when absent or
// expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || entry.expired() {
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &item{value: value, expiresAt: time.Now().Add(ttl)}
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Size returns the number of entries, expired ones included.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stop terminates the background sweeper.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopSweep)
	})
}

func (c *Cache) sweep(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.items {
				if entry.expired() {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopSweep:
			return
		}
	}
}
