package hub

import (
	"sync"
	"time"
)

// DefaultCacheTTL is the derived-read cache lifetime when none is
// configured.
const DefaultCacheTTL = 5 * time.Minute

// cacheEntry is one cached derived value.
type cacheEntry struct {
	value   any
	created time.Time
}

// cache is a TTL cache for derived reads.
//
// Expiry is derive-then-check: the entry's age is evaluated on access
// and expired entries are treated as misses, to be recomputed by the
// caller. There is no eager eviction. One global TTL covers every key.
type cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newCache(ttl time.Duration) *cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// get returns the cached value for key, or false if absent or expired.
func (c *cache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.created) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// put stores a derived value under key.
func (c *cache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, created: c.now()}
}

// invalidate drops the given keys.
func (c *cache) invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// Cache key builders. Keys are per entity so a write invalidates exactly
// the reads it can affect.
func deviceKey(id string) string            { return "device:" + id }
func zoneKey(id string) string              { return "zone:" + id }
func sensorKey(id, channel string) string   { return "sensor:" + id + "/" + channel }
func actuatorKey(id, channel string) string { return "actuator:" + id + "/" + channel }
func aggregateKey(id string) string         { return "aggregate:" + id }
