// Package local implements an on-disk vector backend on top of a bleve index.
//
// Each collection is one bleve index under the persist directory. Vectors are
// stored as JSON alongside the document and searched by brute-force L2 distance,
// which is adequate for the few thousand job titles this service indexes.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

const pageSize = 500

// Store is a domain.VectorBackend persisted under a directory.
type Store struct {
	dir string

	mu      sync.Mutex
	indexes map[string]bleve.Index
}

var _ domain.VectorBackend = (*Store)(nil)

type record struct {
	Content          string `json:"content"`
	TrendingKeywords string `json:"trending_keywords"`
	Vector           string `json:"vector"`
}

// Open prepares a store rooted at dir, creating it when missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.DataSourceError{Path: dir, Err: err}
	}
	return &Store{dir: dir, indexes: make(map[string]bleve.Index)}, nil
}

func buildMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	doc.AddFieldMappingsAt("content", content)

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true
	stored.IncludeInAll = false
	doc.AddFieldMappingsAt("trending_keywords", stored)
	doc.AddFieldMappingsAt("vector", stored)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".bleve")
}

// index returns the open index for collection, opening or creating it.
// Callers hold s.mu.
func (s *Store) index(collection string) (bleve.Index, error) {
	if idx, ok := s.indexes[collection]; ok {
		return idx, nil
	}
	p := s.path(collection)
	var (
		idx bleve.Index
		err error
	)
	if _, statErr := os.Stat(p); errors.Is(statErr, os.ErrNotExist) {
		idx, err = bleve.New(p, buildMapping())
	} else {
		idx, err = bleve.Open(p)
	}
	if err != nil {
		return nil, &domain.DataSourceError{Path: p, Err: err}
	}
	s.indexes[collection] = idx
	return idx, nil
}

// Upsert indexes points by id in a single batch.
func (s *Store) Upsert(_ context.Context, collection string, points []domain.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.index(collection)
	if err != nil {
		return err
	}
	b := idx.NewBatch()
	for _, p := range points {
		vec, err := json.Marshal(p.Vector)
		if err != nil {
			return fmt.Errorf("encode vector %s: %w", p.ID, err)
		}
		if err := b.Index(p.ID, record{
			Content:          p.Document.Content,
			TrendingKeywords: p.Document.Metadata.TrendingKeywords,
			Vector:           string(vec),
		}); err != nil {
			return fmt.Errorf("batch %s: %w", p.ID, err)
		}
	}
	if err := idx.Batch(b); err != nil {
		return &domain.DataSourceError{Path: s.path(collection), Err: err}
	}
	return nil
}

// Search scans every stored vector and returns the k closest by L2 distance.
// Ties keep document id order so results are stable across runs.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredDocument, error) {
	if k <= 0 {
		return []domain.ScoredDocument{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.index(collection)
	if err != nil {
		return nil, err
	}

	var scored []domain.ScoredDocument
	for from := 0; ; from += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), pageSize, from, false)
		req.Fields = []string{"content", "trending_keywords", "vector"}
		req.SortBy([]string{"_id"})
		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return nil, &domain.DataSourceError{Path: s.path(collection), Err: err}
		}
		for _, hit := range res.Hits {
			raw, _ := hit.Fields["vector"].(string)
			var stored []float32
			if err := json.Unmarshal([]byte(raw), &stored); err != nil || len(stored) != len(vector) {
				continue
			}
			content, _ := hit.Fields["content"].(string)
			kw, _ := hit.Fields["trending_keywords"].(string)
			scored = append(scored, domain.ScoredDocument{
				Document: domain.IndexedDocument{
					Content:  content,
					Metadata: domain.DocumentMetadata{TrendingKeywords: kw},
				},
				Score: euclidean(vector, stored),
			})
		}
		if len(res.Hits) < pageSize {
			break
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score < scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	if scored == nil {
		scored = []domain.ScoredDocument{}
	}
	return scored, nil
}

// Drop removes the collection from disk. The next write recreates it.
func (s *Store) Drop(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[collection]; ok {
		_ = idx.Close()
		delete(s.indexes, collection)
	}
	if err := os.RemoveAll(s.path(collection)); err != nil {
		return &domain.DataSourceError{Path: s.path(collection), Err: err}
	}
	return nil
}

// Ping checks that the persist directory is usable.
func (s *Store) Ping(_ context.Context) error {
	st, err := os.Stat(s.dir)
	if err != nil {
		return &domain.DataSourceError{Path: s.dir, Err: err}
	}
	if !st.IsDir() {
		return &domain.DataSourceError{Path: s.dir, Err: errors.New("not a directory")}
	}
	return nil
}

// Count reports the number of documents in collection.
func (s *Store) Count(collection string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.index(collection)
	if err != nil {
		return 0, err
	}
	return idx.DocCount()
}

// Close closes every open index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for name, idx := range s.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.indexes, name)
	}
	return errors.Join(errs...)
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
