package cache

import (
	"sync"
	"time"
)

// ttlEntry holds a cached value and the time it was written.
type ttlEntry struct {
	value     any
	expiresAt time.Time
}

// TTLCache memoizes function results keyed by (function name, canonicalised
// arguments), evicting entries past their TTL and enforcing an LRU-style cap
// once maxEntries is exceeded. Used for tool results that are safe to reuse
// within a short window: platform metadata, web search, Wikipedia lookups,
// archive availability checks, and notes reads.
type TTLCache struct {
	mu         sync.Mutex
	entries    map[string]*ttlEntry
	order      []string // insertion/touch order, oldest first, for eviction
	ttl        time.Duration
	maxEntries int

	hits   int64
	misses int64
}

// TTLCacheOptions configures a TTLCache.
type TTLCacheOptions struct {
	TTL        time.Duration
	MaxEntries int
}

// NewTTLCache creates a cache with the given default TTL and entry cap.
// A zero TTL means entries never expire by time; a zero MaxEntries means
// unbounded size.
func NewTTLCache(opts TTLCacheOptions) *TTLCache {
	return &TTLCache{
		entries:    make(map[string]*ttlEntry),
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
	}
}

// Get returns the cached value for key if present and not expired. Expired
// entries are evicted on read. Hit/miss counters are updated regardless.
func (c *TTLCache) Get(key string) (any, bool) {
	return c.GetAt(key, time.Now())
}

// GetAt is Get with an explicit "now", for deterministic tests.
func (c *TTLCache) GetAt(key string, now time.Time) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.ttl > 0 && now.After(entry.expiresAt) {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses++
		return nil, false
	}

	c.touch(key)
	c.hits++
	return entry.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *TTLCache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a per-entry TTL override.
func (c *TTLCache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Time{}
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if _, exists := c.entries[key]; !exists {
		if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
			c.evictOldest()
		}
	}

	c.entries[key] = &ttlEntry{value: value, expiresAt: expiresAt}
	c.touch(key)
}

// touch moves key to the back of the eviction order (most-recently-used).
func (c *TTLCache) touch(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *TTLCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *TTLCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

// Delete removes key unconditionally.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.removeFromOrder(key)
}

// Clear removes all entries but preserves hit/miss counters.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*ttlEntry)
	c.order = nil
}

// Size returns the current number of live entries.
func (c *TTLCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats is a point-in-time snapshot of hit/miss counters.
type Stats struct {
	Hits   int64
	Misses int64
}

// Stats returns the cache's cumulative hit/miss counts.
func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses}
}

// GetOrLoad returns the cached value for key, or calls load, caches its
// result (if err is nil), and returns it. load is invoked at most once per
// call under the cache's lock being released, so concurrent callers may
// race and both invoke load; the cache converges on whichever result is
// written last.
func (c *TTLCache) GetOrLoad(key string, load func() (any, error)) (any, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}
	value, err := load()
	if err != nil {
		return nil, err
	}
	c.Set(key, value)
	return value, nil
}
