// Package cache provides a small TTL cache for remote lookups.
//
// Each entry stores the value together with the time it was cached; a lookup
// misses once the entry is older than the staleness threshold. This is an
// explicit cache service with injectable time, not ambient package state.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the staleness threshold used when none is configured.
const DefaultTTL = 5 * time.Minute

type entry[V any] struct {
	value    V
	cachedAt time.Time
}

// Cache is a concurrency-safe TTL cache keyed by K.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[K]entry[V]
	now     func() time.Time
}

// New creates a cache whose entries go stale after ttl.
// A non-positive ttl falls back to DefaultTTL.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for key if present and fresh.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.cachedAt) > c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores a value for key, stamping it with the current time.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, cachedAt: c.now()}
}

// Invalidate drops the entry for key, if any.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
