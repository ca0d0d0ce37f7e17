package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/moolen/researchlab/internal/logging"
)

// CacheStats represents cache statistics.
type CacheStats struct {
	Items   int     // Number of queries in cache
	Hits    uint64  // Cache hits
	Misses  uint64  // Cache misses
	Expired uint64  // Entries expired due to TTL
	HitRate float64 // Hit rate (0.0-1.0)
}

type cachedResults struct {
	results   []Result
	expiresAt time.Time
}

// CachingSearcher wraps a Searcher with an LRU cache keyed by normalized query
// and limit. Errors are never cached.
type CachingSearcher struct {
	next   Searcher
	lru    *lru.Cache[string, cachedResults]
	ttl    time.Duration
	mu     sync.Mutex
	logger *logging.Logger
	now    func() time.Time

	hits    uint64
	misses  uint64
	expired uint64
}

// NewCachingSearcher creates a caching decorator holding up to size queries.
// A zero ttl keeps entries until they are evicted.
func NewCachingSearcher(next Searcher, size int, ttl time.Duration) (*CachingSearcher, error) {
	cache, err := lru.New[string, cachedResults](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &CachingSearcher{
		next:   next,
		lru:    cache,
		ttl:    ttl,
		logger: logging.GetLogger("search.cache"),
		now:    time.Now,
	}, nil
}

// Name implements Searcher.
func (c *CachingSearcher) Name() string {
	return c.next.Name()
}

// Search implements Searcher.
func (c *CachingSearcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	key := cacheKey(query, limit)

	c.mu.Lock()
	entry, ok := c.lru.Get(key)
	if ok && c.ttl > 0 && c.now().After(entry.expiresAt) {
		c.lru.Remove(key)
		atomic.AddUint64(&c.expired, 1)
		ok = false
	}
	c.mu.Unlock()

	if ok {
		atomic.AddUint64(&c.hits, 1)
		c.logger.Debug("Search cache HIT: query=%q", query)
		return copyResults(entry.results), nil
	}
	atomic.AddUint64(&c.misses, 1)

	results, err := c.next.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lru.Add(key, cachedResults{results: copyResults(results), expiresAt: c.now().Add(c.ttl)})
	c.mu.Unlock()
	c.logger.Debug("Search cache PUT: query=%q, results=%d", query, len(results))

	return results, nil
}

// Stats returns cache statistics.
func (c *CachingSearcher) Stats() CacheStats {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)
	total := hits + misses

	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Items:   c.lru.Len(),
		Hits:    hits,
		Misses:  misses,
		Expired: atomic.LoadUint64(&c.expired),
		HitRate: hitRate,
	}
}

func cacheKey(query string, limit int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return fmt.Sprintf("%d|%s", limit, normalized)
}

func copyResults(in []Result) []Result {
	if in == nil {
		return nil
	}
	out := make([]Result, len(in))
	copy(out, in)
	return out
}
