package embedding

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"framerag/internal/port"
)

// CachedEmbedder wraps an Embedder with an in-memory LRU keyed by content
// hash, so re-ingesting unchanged documents never re-embeds them.
type CachedEmbedder struct {
	inner    port.Embedder
	capacity int

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	key string
	vec []float32
}

// NewCachedEmbedder wraps inner with a cache of the given capacity.
func NewCachedEmbedder(inner port.Embedder, capacity int) *CachedEmbedder {
	if capacity <= 0 {
		capacity = 1024
	}
	return &CachedEmbedder{
		inner:    inner,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Embed returns cached vectors where available and embeds only the
// misses, preserving input order.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var missTexts []string
	var missIdx []int

	c.mu.Lock()
	for i, text := range texts {
		keys[i] = contentKey(text)
		if vec, ok := c.lookup(keys[i]); ok {
			out[i] = vec
			c.hits++
			continue
		}
		c.misses++
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	c.mu.Unlock()

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for j, vec := range vecs {
		i := missIdx[j]
		out[i] = vec
		c.store(keys[i], vec)
	}
	c.mu.Unlock()

	return out, nil
}

// Dimension returns the wrapped embedder's dimension.
func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

// ModelName returns the wrapped embedder's model name.
func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

// Stats returns cumulative hit and miss counts.
func (c *CachedEmbedder) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// lookup must be called with mu held.
func (c *CachedEmbedder) lookup(key string) ([]float32, bool) {
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).vec, true
}

// store must be called with mu held.
func (c *CachedEmbedder) store(key string, vec []float32) {
	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).vec = vec
		return
	}

	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, vec: vec})

	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func contentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:16])
}
