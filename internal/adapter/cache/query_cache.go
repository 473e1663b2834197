package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"sync"
	"time"

	"studyrag/internal/domain"
	"studyrag/internal/port"
)

// QueryCache is an LRU cache of search results with a TTL. Invalidate bumps
// a generation counter so entries written before a corpus change are never
// served afterwards.
type QueryCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
}

type cacheEntry struct {
	results   []domain.ScoredChunk
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(query string, filter domain.Filter, topK int) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(filter[k]))
		h.Write([]byte{0})
	}

	h.Write([]byte(strconv.Itoa(topK)))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *QueryCache) Get(query string, filter domain.Filter, topK int) ([]domain.ScoredChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, filter, topK)
	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.indexGen != c.indexGen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return copyResults(entry.results), true
}

// Generation returns the current index generation. Callers capture it
// before a search and hand it to Put so a result computed across an
// invalidation is dropped.
func (c *QueryCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexGen
}

func (c *QueryCache) Put(query string, filter domain.Filter, topK int, gen uint64, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.indexGen {
		return
	}

	key := cacheKey(query, filter, topK)
	entry := &cacheEntry{
		results:   copyResults(results),
		timestamp: time.Now(),
		indexGen:  c.indexGen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func copyResults(results []domain.ScoredChunk) []domain.ScoredChunk {
	if results == nil {
		return nil
	}
	out := make([]domain.ScoredChunk, len(results))
	copy(out, results)
	return out
}

// CachedRetriever serves repeated searches from a QueryCache.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Search(ctx context.Context, query string, filter domain.Filter, k int) ([]domain.ScoredChunk, error) {
	if results, hit := r.cache.Get(query, filter, k); hit {
		return results, nil
	}

	gen := r.cache.Generation()
	results, err := r.retriever.Search(ctx, query, filter, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(query, filter, k, gen, results)

	return results, nil
}

// Invalidate drops every cached result.
func (r *CachedRetriever) Invalidate() {
	r.cache.Invalidate()
}
