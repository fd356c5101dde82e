package ai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// redisEmbedCache shares query embeddings between server replicas.
// Redis failures degrade to calling the base embedder.
type redisEmbedCache struct {
	base   domain.Embedder
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	group  singleflight.Group
}

// NewRedisEmbedCache wraps base with a Redis backed cache. Keys are namespaced by model.
func NewRedisEmbedCache(base domain.Embedder, rdb redis.UniversalClient, model string, ttl time.Duration) domain.Embedder {
	if base == nil || rdb == nil {
		return base
	}
	return &redisEmbedCache{base: base, rdb: rdb, ttl: ttl, prefix: "embed:" + model + ":"}
}

func (c *redisEmbedCache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.prefix + keyFor(t)
	}

	var missIdx []int
	var missTexts []string
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Warn("embedding cache read failed", slog.Any("error", err))
		vals = make([]any, len(texts))
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			var vec []float32
			if json.Unmarshal([]byte(s), &vec) == nil {
				res[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}
	if len(missTexts) == 0 {
		return res, nil
	}

	vecs, err := embedShared(ctx, &c.group, c.base, missTexts)
	if err != nil {
		return nil, err
	}
	pipe := c.rdb.Pipeline()
	for j, idx := range missIdx {
		res[idx] = vecs[j]
		b, _ := json.Marshal(vecs[j])
		pipe.Set(ctx, keys[idx], b, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("embedding cache write failed", slog.Any("error", err))
	}
	return res, nil
}
