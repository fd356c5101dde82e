// Package ai provides model adapters and the wrappers shared by them:
// embedding caches, response cleaning and schema validation.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// embedCache wraps an Embedder and caches vectors by text hash.
// Eviction is FIFO. Concurrent misses for the same batch share one upstream call.
type embedCache struct {
	base     domain.Embedder
	capacity int
	mu       sync.RWMutex
	m        map[string][]float32
	ord      []string
	group    singleflight.Group
}

// NewEmbedCache wraps base with an in-process cache of capacity entries.
// If capacity <= 0, base is returned unmodified.
func NewEmbedCache(base domain.Embedder, capacity int) domain.Embedder {
	if capacity <= 0 || base == nil {
		return base
	}
	return &embedCache{base: base, capacity: capacity, m: make(map[string][]float32), ord: make([]string, 0, capacity)}
}

func (c *embedCache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		c.mu.RLock()
		v, ok := c.m[keyFor(t)]
		c.mu.RUnlock()
		if ok {
			res[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return res, nil
	}
	vecs, err := embedShared(ctx, &c.group, c.base, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		res[idx] = vecs[j]
		c.put(missTexts[j], vecs[j])
	}
	return res, nil
}

func (c *embedCache) put(text string, vec []float32) {
	k := keyFor(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[k]; exists {
		c.m[k] = vec
		return
	}
	if len(c.ord) >= c.capacity {
		old := c.ord[0]
		c.ord = c.ord[1:]
		delete(c.m, old)
	}
	c.m[k] = vec
	c.ord = append(c.ord, k)
}

// embedShared collapses identical concurrent batches into one upstream call.
func embedShared(ctx context.Context, g *singleflight.Group, base domain.Embedder, texts []string) ([][]float32, error) {
	v, err, _ := g.Do(batchKey(texts), func() (any, error) {
		return base.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return v.([][]float32), nil
}

func batchKey(texts []string) string {
	h := sha256.New()
	for _, t := range texts {
		_, _ = h.Write([]byte(strings.TrimSpace(t)))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func keyFor(text string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(h[:])
}
