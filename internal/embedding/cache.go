package embedding

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// EmbeddingCache is an LRU cache for embeddings keyed by text. It is safe for
// concurrent use.
type EmbeddingCache struct {
	lru *lru.Cache[string, []float64]
}

// NewEmbeddingCache creates a cache holding at most capacity entries.
// A capacity <= 0 disables caching.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	c := &EmbeddingCache{}
	if capacity > 0 {
		// lru.New only fails for a non-positive size.
		c.lru, _ = lru.New[string, []float64](capacity)
	}
	return c
}

// Get returns a copy of the cached embedding for key and marks it most recently used.
func (c *EmbeddingCache) Get(key string) ([]float64, bool) {
	if c.lru == nil {
		return nil, false
	}
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return append([]float64(nil), v...), true
}

// Set stores the embedding for key, evicting the least recently used entry when full.
func (c *EmbeddingCache) Set(key string, value []float64) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, append([]float64(nil), value...))
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
