package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultChartCacheEntries bounds the number of rendered charts kept in memory.
const DefaultChartCacheEntries = 256

// RenderCache memoizes rendered chart HTML. It never stores backend data.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCacheStats counts lookups since the cache was built.
type ChartCacheStats struct {
	Hits    int
	Misses  int
	Entries int
}

// ChartCache keeps rendered chart markup for a TTL. Concurrent misses on the
// same key share a single render.
type ChartCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	group      singleflight.Group

	mu      sync.Mutex
	entries map[string]chartEntry
	hits    int
	misses  int
}

type chartEntry struct {
	html    string
	expires time.Time
}

// NewChartCache builds a cache with the provided TTL. A zero TTL disables caching.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:        ttl,
		maxEntries: DefaultChartCacheEntries,
		now:        time.Now,
		entries:    make(map[string]chartEntry),
	}
}

func (c *ChartCache) enabled() bool {
	return c != nil && c.ttl > 0
}

// GetOrRender returns the cached markup for key or renders it. Failed renders
// are not stored.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if !c.enabled() {
		return render()
	}
	if html, ok := c.lookup(key); ok {
		return html, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		html, err := render()
		if err != nil {
			return "", err
		}
		c.store(key, html)
		return html, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len reports stored entries, including expired ones not yet swept.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counters.
func (c *ChartCache) Stats() ChartCacheStats {
	if c == nil {
		return ChartCacheStats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChartCacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}

func (c *ChartCache) lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if ok && !c.now().After(entry.expires) {
		c.hits++
		return entry.html, true
	}
	if ok {
		delete(c.entries, key)
	}
	c.misses++
	return "", false
}

func (c *ChartCache) store(key, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if len(c.entries) >= c.maxEntries {
		c.sweep(now)
	}
	c.entries[key] = chartEntry{html: html, expires: now.Add(c.ttl)}
}

// sweep drops expired entries, then the soonest-expiring ones until there is
// room for one more. Caller holds mu.
func (c *ChartCache) sweep(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
	for len(c.entries) >= c.maxEntries {
		var oldest string
		var at time.Time
		for key, entry := range c.entries {
			if oldest == "" || entry.expires.Before(at) {
				oldest, at = key, entry.expires
			}
		}
		delete(c.entries, oldest)
	}
}

// contentHash fingerprints the JSON form of v for use in cache keys.
func contentHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:12])
}
