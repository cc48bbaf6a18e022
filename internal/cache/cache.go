// Package cache provides a small in-process TTL cache keyed by user ID. It
// replaces ambient module-level state with an explicit object that can be
// handed to the stores and tested with a fake clock.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Cache maps a user key to a payload plus fetch timestamp. Entries expire
// after the configured TTL; there is no eviction beyond time-based staleness,
// so memory grows with the number of distinct keys seen in-process.
type Cache[T any] struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	entries map[string]entry[T]
}

// New creates a cache with the given TTL. now may be nil, in which case
// time.Now is used; tests inject their own clock.
func New[T any](ttl time.Duration, now func() time.Time) *Cache[T] {
	if now == nil {
		now = time.Now
	}
	return &Cache[T]{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry[T]),
	}
}

// Get returns the cached value for key if one exists and is younger than the
// TTL. A miss requires a live fetch followed by Set.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set overwrites the entry for key with value and the current timestamp.
// Empty results are cached like any other to avoid refetch stampedes on
// legitimately-empty result sets.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{value: value, fetchedAt: c.now()}
}

// Invalidate drops the entry for key, forcing the next Get to miss.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
