// ABOUTME: In-memory TTL cache shared by the sheet readers
// ABOUTME: Whole-entry invalidation only; entries expire a fixed duration after being set
package cache

import (
	"sync"
	"time"
)

// Cache is a key-value store with per-entry expiry. Readers populate it
// after a backend fetch; writers invalidate the keys their mutation made
// stale. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value    any
	storedAt time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewWithClock is like New but with an injected clock, for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	c := New(ttl)
	c.now = now
	return c
}

// Get returns the cached value for key while the entry is still inside its
// TTL. An expired entry is a miss; it is left in place and overwritten by
// the next Set.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, stamped with the current time.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: c.now()}
}

// Invalidate removes the entire entry for key. There is no partial
// invalidation: the next read of key is a full backend fetch.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
