// Package vector joins an embedder with a vector backend into a domain.VectorStore.
package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// Collection is a named set of job title documents in one backend.
type Collection struct {
	embedder domain.Embedder
	backend  domain.VectorBackend
	name     string
}

var _ domain.VectorStore = (*Collection)(nil)

// NewCollection returns a store writing to backend under name.
func NewCollection(embedder domain.Embedder, backend domain.VectorBackend, name string) *Collection {
	return &Collection{embedder: embedder, backend: backend, name: name}
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// PointID derives a stable id so re-indexing the same title overwrites it.
func PointID(collection, content string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(collection+"/"+content)).String()
}

// Index embeds docs in one call and upserts them.
func (c *Collection) Index(ctx context.Context, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vecs, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("op=vector.Index embed: %w", err)
	}
	if len(vecs) != len(docs) {
		return fmt.Errorf("op=vector.Index: %w: %d embeddings for %d documents", domain.ErrInternal, len(vecs), len(docs))
	}
	points := make([]domain.VectorPoint, len(docs))
	for i, d := range docs {
		points[i] = domain.VectorPoint{ID: PointID(c.name, d.Content), Vector: vecs[i], Document: d}
	}
	if err := c.backend.Upsert(ctx, c.name, points); err != nil {
		return fmt.Errorf("op=vector.Index upsert: %w", err)
	}
	slog.Debug("indexed documents", slog.String("collection", c.name), slog.Int("count", len(points)))
	return nil
}

// SearchWithScores returns up to k documents nearest to query, closest first.
func (c *Collection) SearchWithScores(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	vecs, err := c.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("op=vector.Search embed: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("op=vector.Search: %w: %d embeddings for one query", domain.ErrInternal, len(vecs))
	}
	docs, err := c.backend.Search(ctx, c.name, vecs[0], k)
	if err != nil {
		return nil, fmt.Errorf("op=vector.Search: %w", err)
	}
	return docs, nil
}

// Reset drops every document in the collection.
func (c *Collection) Reset(ctx context.Context) error {
	if err := c.backend.Drop(ctx, c.name); err != nil {
		return fmt.Errorf("op=vector.Reset: %w", err)
	}
	return nil
}

// Ping checks backend reachability.
func (c *Collection) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}
