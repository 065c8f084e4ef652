// internal/cache/cache.go
package cache

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// Entry is a fetched document kept for re-use within a run.
type Entry struct {
	URL        string // final URL after redirects
	StatusCode int
	Body       []byte
	Rendered   bool
	FetchedAt  time.Time
}

// Cache defines the interface for page caching implementations.
type Cache interface {
	// Get retrieves a cached page by key.
	Get(key string) (*Entry, bool)

	// Set stores a page under key, replacing any previous entry.
	Set(key string, e *Entry)

	// Delete removes a cached page by key.
	Delete(key string)

	// Clear removes all cached pages.
	Clear()
}

// PageCache is a size-bounded LRU whose entries expire after a TTL.
type PageCache struct {
	lru    *expirable.LRU[string, *Entry]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache holding at most entries pages for ttl each.
func New(entries int, ttl time.Duration) *PageCache {
	if entries <= 0 {
		entries = 512
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PageCache{
		lru: expirable.NewLRU[string, *Entry](entries, func(key string, _ *Entry) {
			log.Debug().Str("key", key).Msg("Evicted from cache")
		}, ttl),
	}
}

// Get retrieves a cached page
func (c *PageCache) Get(key string) (*Entry, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	log.Debug().Str("key", key).Msg("Cache hit")
	return e, true
}

// Set stores a page
func (c *PageCache) Set(key string, e *Entry) {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now()
	}
	c.lru.Add(key, e)
}

// Delete removes a cached page
func (c *PageCache) Delete(key string) {
	c.lru.Remove(key)
}

// Clear removes all cached pages
func (c *PageCache) Clear() {
	c.lru.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Len returns the number of live entries.
func (c *PageCache) Len() int {
	return c.lru.Len()
}

// Stats returns cache statistics including hit rate
func (c *PageCache) Stats() map[string]interface{} {
	hits, misses := c.hits.Load(), c.misses.Load()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return map[string]interface{}{
		"entries":  c.lru.Len(),
		"hits":     hits,
		"misses":   misses,
		"hit_rate": hitRate,
	}
}

// Key builds a cache key for a request. Only idempotent requests are
// cached, so the method is part of the key.
func Key(method, url string) string {
	return fmt.Sprintf("%s %s", strings.ToUpper(method), url)
}
