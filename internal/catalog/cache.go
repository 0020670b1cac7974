package catalog

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// cache is an in-memory TTL cache. A nil *cache is valid and never stores anything.
type cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	writes  int
	now     func() time.Time
}

// newCache returns nil when ttl is not positive, which disables caching.
func newCache[V any](ttl time.Duration) *cache[V] {
	if ttl <= 0 {
		return nil
	}
	return &cache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *cache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}

	now := c.now()
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return zero, false
	}
	if now.After(entry.expiresAt) {
		c.mu.Lock()
		// Another writer may have refreshed it meanwhile.
		if e, exists := c.entries[key]; exists && now.After(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return entry.value, true
}

func (c *cache[V]) Set(key string, value V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.writes++
	// Sweep expired entries every 100 writes
	if c.writes%100 == 0 {
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}

	c.entries[key] = cacheEntry[V]{
		value:     value,
		expiresAt: now.Add(c.ttl),
	}
}

// Len returns the number of stored entries, expired or not.
func (c *cache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
