package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/observability"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/pkg/textx"
)

// DefaultTopK is the number of neighbours inspected per retrieval.
const DefaultTopK = 50

// Relevance converts a distance into a score in (0, 1]. Zero distance is 1.
func Relevance(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// RelevanceThreshold maps a 0..100 strictness into a relevance bar in [0, 1].
// Higher strictness keeps fewer, closer matches.
func RelevanceThreshold(strictness int) float64 {
	switch {
	case strictness < 0:
		strictness = 0
	case strictness > 100:
		strictness = 100
	}
	return float64(strictness) / 100
}

// Retriever is the single keyword retrieval policy shared by the API, the CLI
// and batch generation.
type Retriever struct {
	Store       domain.VectorStore
	Fallback    domain.KeywordSource
	TopK        int
	MaxKeywords int
}

// Retrieve returns keywords of stored job titles whose relevance to profession
// is at least threshold. When no result qualifies it falls back to a live
// scrape and reports no scores. A failed scrape yields an empty keyword list.
func (r Retriever) Retrieve(ctx context.Context, profession string, threshold float64) (domain.RetrievalResult, error) {
	profession = strings.TrimSpace(profession)
	if profession == "" {
		return domain.RetrievalResult{}, fmt.Errorf("%w: profession required", domain.ErrInvalidArgument)
	}
	k := r.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	lg := observability.LoggerFromContext(ctx)

	hits, err := r.Store.SearchWithScores(ctx, profession, k)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("op=retrieve.Search: %w", err)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score < hits[j].Score })

	var (
		kept   [][]string
		lo, hi float64
	)
	for i, h := range hits {
		if i == 0 || h.Score < lo {
			lo = h.Score
		}
		if i == 0 || h.Score > hi {
			hi = h.Score
		}
		rel := Relevance(h.Score)
		observability.RelevanceHistogram.Observe(rel)
		if rel < threshold {
			continue
		}
		kws, err := DecodeKeywords(h.Document.Metadata.TrendingKeywords)
		if err != nil {
			lg.Warn("malformed keyword metadata",
				slog.String("job_title", h.Document.Content),
				slog.Any("error", err))
			continue
		}
		kept = append(kept, kws)
	}

	keywords := textx.UniqueStrings(kept...)
	if len(keywords) > 0 {
		observability.RetrievalsTotal.WithLabelValues(domain.SourceVectorStore).Inc()
		lg.Debug("retrieved keywords",
			slog.String("profession", profession),
			slog.Float64("threshold", threshold),
			slog.Int("hits", len(hits)),
			slog.Int("keywords", len(keywords)))
		return domain.RetrievalResult{Keywords: keywords, MinScore: &lo, MaxScore: &hi, Source: domain.SourceVectorStore}, nil
	}

	observability.RetrievalsTotal.WithLabelValues(domain.SourceScrape).Inc()
	lg.Info("no stored keywords passed threshold, scraping",
		slog.String("profession", profession),
		slog.Float64("threshold", threshold),
		slog.Int("hits", len(hits)))
	res := domain.RetrievalResult{Keywords: []string{}, Source: domain.SourceScrape}
	if r.Fallback == nil {
		return res, nil
	}
	scraped, err := r.Fallback.FetchKeywords(ctx, profession, r.MaxKeywords)
	if err != nil {
		lg.Error("fallback scrape failed", slog.String("profession", profession), slog.Any("error", err))
		return res, nil
	}
	res.Keywords = textx.UniqueStrings(scraped)
	return res, nil
}
