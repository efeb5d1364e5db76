// Package cache provides a bounded, time-expiring memoization layer for
// upstream API responses. It is a pure performance optimization: the
// pipeline behaves identically (only slower) with a cold cache.
package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"mlbpicks/pipeline/internal/metrics"
)

const (
	// DefaultCapacity bounds the number of live entries
	DefaultCapacity = 100
	// DefaultTTL is the entry lifetime when Set is called without one
	DefaultTTL = 600 * time.Second
)

type entry struct {
	value     interface{}
	expiresAt time.Time
	storedAt  time.Time
}

// Cache is a bounded TTL key/value store safe for concurrent use within
// one process. When full, the single oldest entry is evicted to make
// room.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// New creates a cache with the given capacity and default TTL.
// Non-positive arguments fall back to the package defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries:  make(map[string]entry, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the cached value for key, or ok=false on a miss or an
// expired entry
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		metrics.RecordCacheMiss()
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		metrics.RecordCacheMiss()
		return nil, false
	}

	metrics.RecordCacheHit()
	return e.value, true
}

// Set stores value under key with the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with an explicit TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	now := c.now()
	c.entries[key] = entry{
		value:     value,
		expiresAt: now.Add(ttl),
		storedAt:  now,
	}
}

// Delete removes key if present
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of live entries, expired ones included until
// their next lookup
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest drops the single entry stored longest ago.
// Caller must hold the lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true

	for key, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.storedAt
			first = false
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		log.Debug().Str("key", oldestKey).Msg("Cache at capacity, evicted oldest entry")
	}
}
