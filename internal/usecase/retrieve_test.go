package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/vector"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/vector/qdrant"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain/mocks"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/usecase"
)

func hit(title, keywords string, distance float64) domain.ScoredDocument {
	return domain.ScoredDocument{
		Document: domain.IndexedDocument{Content: title, Metadata: domain.DocumentMetadata{TrendingKeywords: keywords}},
		Score:    distance,
	}
}

func TestRelevance(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 1.0, usecase.Relevance(0), 1e-12)
	assert.InDelta(t, 0.5, usecase.Relevance(1), 1e-12)
	assert.InDelta(t, 1.0, usecase.Relevance(-3), 1e-12)

	prev := usecase.Relevance(0)
	for _, d := range []float64{0.001, 0.5, 1, 10, 300, 1e9} {
		r := usecase.Relevance(d)
		assert.Greater(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)
		assert.Less(t, r, prev, "relevance must decrease as distance grows")
		prev = r
	}
}

func TestRelevanceThreshold(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   int
		want float64
	}{
		{in: -10, want: 0},
		{in: 0, want: 0},
		{in: 20, want: 0.2},
		{in: 90, want: 0.9},
		{in: 100, want: 1},
		{in: 250, want: 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, usecase.RelevanceThreshold(tt.in), 1e-12, "strictness %d", tt.in)
	}
	for s := 0; s < 100; s++ {
		assert.LessOrEqual(t, usecase.RelevanceThreshold(s), usecase.RelevanceThreshold(s+1))
	}
}

func TestRetriever_KeepsRelevantAndDedupes(t *testing.T) {
	t.Parallel()
	store := &mocks.MockVectorStore{}
	scraper := &mocks.MockKeywordSource{}
	store.On("SearchWithScores", mock.Anything, "Data Scientist", 50).Return([]domain.ScoredDocument{
		hit("Data Engineer", `["Python", "Spark"]`, 1.0),
		hit("Data Scientist", `['ML', 'Python']`, 0.0),
		hit("Chef", `["Plating"]`, 9.0),
	}, nil)

	r := usecase.Retriever{Store: store, Fallback: scraper, MaxKeywords: 10}
	got, err := r.Retrieve(context.Background(), "Data Scientist", 0.5)
	require.NoError(t, err)

	assert.Equal(t, []string{"ML", "Python", "Spark"}, got.Keywords)
	assert.Equal(t, domain.SourceVectorStore, got.Source)
	require.NotNil(t, got.MinScore)
	require.NotNil(t, got.MaxScore)
	assert.InDelta(t, 0.0, *got.MinScore, 1e-12)
	assert.InDelta(t, 9.0, *got.MaxScore, 1e-12)
	scraper.AssertNotCalled(t, "FetchKeywords", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetriever_ThresholdEdges(t *testing.T) {
	t.Parallel()
	hits := []domain.ScoredDocument{
		hit("Nurse", `["Patient Care"]`, 0),
		hit("Nurse Practitioner", `["Prescribing"]`, 0.25),
		hit("Welder", `["TIG"]`, 400),
	}
	tests := []struct {
		name      string
		threshold float64
		want      []string
	}{
		{name: "zero keeps everything", threshold: 0, want: []string{"Patient Care", "Prescribing", "TIG"}},
		{name: "one keeps exact matches only", threshold: 1, want: []string{"Patient Care"}},
		{name: "middle", threshold: 0.75, want: []string{"Patient Care", "Prescribing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &mocks.MockVectorStore{}
			store.On("SearchWithScores", mock.Anything, "Nurse", 5).Return(hits, nil)
			got, err := usecase.Retriever{Store: store, TopK: 5}.Retrieve(context.Background(), "Nurse", tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Keywords)
		})
	}
}

func TestRetriever_ThresholdOneWithoutExactMatchScrapes(t *testing.T) {
	t.Parallel()
	store := &mocks.MockVectorStore{}
	store.On("SearchWithScores", mock.Anything, "Nurse", 50).Return([]domain.ScoredDocument{
		hit("Nurse Practitioner", `["Prescribing"]`, 0.25),
	}, nil)
	scraper := &mocks.MockKeywordSource{}
	scraper.On("FetchKeywords", mock.Anything, "Nurse", 10).Return([]string{"Triage"}, nil)

	got, err := usecase.Retriever{Store: store, Fallback: scraper, MaxKeywords: 10}.Retrieve(context.Background(), "Nurse", usecase.RelevanceThreshold(100))
	require.NoError(t, err)
	assert.Equal(t, []string{"Triage"}, got.Keywords)
	assert.Equal(t, domain.SourceScrape, got.Source)
	scraper.AssertExpectations(t)
}

func TestRetriever_MalformedMetadataSkipped(t *testing.T) {
	t.Parallel()
	store := &mocks.MockVectorStore{}
	store.On("SearchWithScores", mock.Anything, "Pilot", 50).Return([]domain.ScoredDocument{
		hit("Pilot", `__import__('os')`, 0),
		hit("Airline Pilot", `["ATC", 7]`, 0.1),
		hit("Flight Instructor", `["CFI"]`, 0.2),
	}, nil)

	got, err := usecase.Retriever{Store: store}.Retrieve(context.Background(), "Pilot", 0.1)
	require.NoError(t, err)
	assert.Equal(t, []string{"CFI"}, got.Keywords)
}

func TestRetriever_FallbackToScrape(t *testing.T) {
	t.Parallel()
	store := &mocks.MockVectorStore{}
	store.On("SearchWithScores", mock.Anything, "Astronaut", 50).Return([]domain.ScoredDocument{
		hit("Welder", `["TIG"]`, 99),
	}, nil)
	scraper := &mocks.MockKeywordSource{}
	scraper.On("FetchKeywords", mock.Anything, "Astronaut", 10).Return([]string{"EVA", "Robotics", "EVA"}, nil)

	got, err := usecase.Retriever{Store: store, Fallback: scraper, MaxKeywords: 10}.Retrieve(context.Background(), "Astronaut", 0.9)
	require.NoError(t, err)
	assert.Equal(t, []string{"EVA", "Robotics"}, got.Keywords)
	assert.Equal(t, domain.SourceScrape, got.Source)
	assert.Nil(t, got.MinScore)
	assert.Nil(t, got.MaxScore)
	scraper.AssertExpectations(t)
}

func TestRetriever_MissingQdrantCollectionFallsBackToScrape(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":{"error":"Not found: Collection job_skills doesn't exist!"}}`))
	}))
	t.Cleanup(server.Close)
	store := vector.NewCollection(letterEmbedder{}, qdrant.New(server.URL, ""), "job_skills")
	scraper := &mocks.MockKeywordSource{}
	scraper.On("FetchKeywords", mock.Anything, "Nurse", 10).Return([]string{"Triage", "EMR"}, nil)

	got, err := usecase.Retriever{Store: store, Fallback: scraper, MaxKeywords: 10}.Retrieve(context.Background(), "Nurse", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Triage", "EMR"}, got.Keywords)
	assert.Equal(t, domain.SourceScrape, got.Source)
	assert.Nil(t, got.MinScore)
	assert.Nil(t, got.MaxScore)
	scraper.AssertExpectations(t)
}

func TestRetriever_FallbackFailureIsEmpty(t *testing.T) {
	t.Parallel()
	store := &mocks.MockVectorStore{}
	store.On("SearchWithScores", mock.Anything, "Astronaut", 50).Return([]domain.ScoredDocument{}, nil)
	scraper := &mocks.MockKeywordSource{}
	scraper.On("FetchKeywords", mock.Anything, "Astronaut", 10).
		Return(nil, &domain.NetworkError{Op: "scrape", Err: errors.New("429")})

	got, err := usecase.Retriever{Store: store, Fallback: scraper, MaxKeywords: 10}.Retrieve(context.Background(), "Astronaut", 0.5)
	require.NoError(t, err)
	assert.Empty(t, got.Keywords)
	assert.NotNil(t, got.Keywords)
	assert.Nil(t, got.MinScore)
}

func TestRetriever_Errors(t *testing.T) {
	t.Parallel()
	_, err := usecase.Retriever{Store: &mocks.MockVectorStore{}}.Retrieve(context.Background(), "  ", 0.5)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	store := &mocks.MockVectorStore{}
	store.On("SearchWithScores", mock.Anything, "Nurse", 50).Return(nil, errors.New("index offline"))
	_, err = usecase.Retriever{Store: store}.Retrieve(context.Background(), "Nurse", 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index offline")
}
