package embcache

import (
	"context"
	"sync"

	"github.com/yanqian/papersearch/internal/domain/questionsearch"
)

// MemoryCache keeps embeddings for the lifetime of the process.
type MemoryCache struct {
	mu      sync.RWMutex
	vectors map[string]map[string][]float32
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{vectors: make(map[string]map[string][]float32)}
}

// Lookup returns the cached vectors for the keys it knows.
func (c *MemoryCache) Lookup(_ context.Context, model string, keys []string) (map[string][]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byKey := c.vectors[model]
	out := make(map[string][]float32, len(keys))
	for _, key := range keys {
		if vec, ok := byKey[key]; ok {
			out[key] = append([]float32(nil), vec...)
		}
	}
	return out, nil
}

// Store records vectors, replacing existing entries.
func (c *MemoryCache) Store(_ context.Context, model string, vectors map[string][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	byKey, ok := c.vectors[model]
	if !ok {
		byKey = make(map[string][]float32, len(vectors))
		c.vectors[model] = byKey
	}
	for key, vec := range vectors {
		byKey[key] = append([]float32(nil), vec...)
	}
	return nil
}

var _ questionsearch.EmbeddingCache = (*MemoryCache)(nil)
