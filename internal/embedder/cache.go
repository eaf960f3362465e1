package embedder

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize holds far more entries than any in-scope dataset produces,
// so for practical purposes the cache never evicts during a run.
const DefaultCacheSize = 10000

// Cache memoizes embeddings by exact-text content hash. Training and
// retrieval pass over the same texts repeatedly; the first lookup computes,
// every later lookup hits the cache.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates an embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		// Only reachable with a non-positive size, which is handled above.
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector. The copy keeps caller mutations
// from polluting the cached value.
func (c *Cache) Get(hash string) ([]float32, bool) {
	vec, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector under the given content hash.
func (c *Cache) Set(hash string, vec []float32) {
	c.cache.Add(hash, vec)
}

// Size returns the current number of cached vectors.
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.cache.Purge()
}
