package geocode

import (
	"sync"
	"time"
)

// resultCache is a small bounded in-process cache. Geocoding results are
// stable for days, so a plain TTL map with oldest-insertion eviction is
// enough; no shared state with other instances is needed.
type resultCache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	order    []string
	capacity int
	ttl      time.Duration
}

type cacheEntry struct {
	result    Result
	expiresAt time.Time
}

func newResultCache(capacity int, ttl time.Duration) *resultCache {
	return &resultCache{
		entries:  make(map[string]cacheEntry),
		capacity: capacity,
		ttl:      ttl,
	}
}

func (c *resultCache) get(key string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	result := entry.result
	return &result, true
}

func (c *resultCache) put(key string, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}

	c.entries[key] = cacheEntry{result: *result, expiresAt: time.Now().Add(c.ttl)}
}
