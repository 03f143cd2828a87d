package pricing

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Cache is a concurrent-safe bounded cache of pricing responses with
// least-recently-used eviction. Concurrent calculation runs share one
// cache; mutation is serialized under a single lock.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Response
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	hits       atomic.Int64
	misses     atomic.Int64
}

// CacheStats contains cache performance counters.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// DefaultCacheSize bounds the cache when no size is configured.
const DefaultCacheSize = 1000

// NewCache creates a cache holding at most maxEntries responses.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	return &Cache{
		entries:    make(map[string]*Response),
		maxEntries: maxEntries,
	}
}

// RequestKey builds the cache key for a pricing request.
func RequestKey(req Request) string {
	return strings.Join([]string{
		NormalizeDescription(req.Description),
		string(req.Trade),
		strings.ToLower(strings.TrimSpace(req.Unit)),
		strings.ToLower(strings.TrimSpace(req.Location)),
	}, "|")
}

// Get retrieves a cached response and marks it most recently used.
// Returns nil on miss.
func (c *Cache) Get(key string) *Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return resp
}

// Put stores a response, evicting the least recently used entry when the
// cache is full.
func (c *Cache) Put(key string, resp *Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Existing key: update in place and move to back.
	if _, ok := c.entries[key]; ok {
		c.entries[key] = resp
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = resp
	c.order = append(c.order, key)
}

// Clear drops all cached entries. Hit and miss counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Response)
	c.order = nil
}

// Stats returns cache performance counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

// removeFromOrder drops a key from the recency list.
func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
