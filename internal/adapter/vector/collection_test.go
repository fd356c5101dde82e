package vector_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/vector"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/vector/local"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// letterEmbedder maps text to a vector of lowercase letter counts.
type letterEmbedder struct{ calls int }

func (e *letterEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, 26)
		for _, r := range strings.ToLower(t) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		out[i] = v
	}
	return out, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("boom")
}

func TestCollection_IndexAndSearch(t *testing.T) {
	t.Parallel()
	backend, err := local.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	emb := &letterEmbedder{}
	c := vector.NewCollection(emb, backend, "job_skills")
	ctx := context.Background()

	require.NoError(t, c.Index(ctx, []domain.IndexedDocument{
		{Content: "Nurse", Metadata: domain.DocumentMetadata{TrendingKeywords: `["Patient Care"]`}},
		{Content: "Software Engineer", Metadata: domain.DocumentMetadata{TrendingKeywords: `["Go"]`}},
	}))
	assert.Equal(t, 1, emb.calls)

	got, err := c.SearchWithScores(ctx, "Nurse", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Nurse", got[0].Document.Content)
	assert.InDelta(t, 0, got[0].Score, 1e-9)

	require.NoError(t, c.Reset(ctx))
	got, err = c.SearchWithScores(ctx, "Nurse", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, c.Ping(ctx))
}

func TestCollection_ReindexOverwrites(t *testing.T) {
	t.Parallel()
	backend, err := local.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	c := vector.NewCollection(&letterEmbedder{}, backend, "job_skills")
	ctx := context.Background()

	doc := domain.IndexedDocument{Content: "Chef", Metadata: domain.DocumentMetadata{TrendingKeywords: `["Plating"]`}}
	require.NoError(t, c.Index(ctx, []domain.IndexedDocument{doc}))
	require.NoError(t, c.Index(ctx, []domain.IndexedDocument{doc}))

	n, err := backend.Count("job_skills")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestCollection_EmbedError(t *testing.T) {
	t.Parallel()
	backend, err := local.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	c := vector.NewCollection(failingEmbedder{}, backend, "x")

	require.Error(t, c.Index(context.Background(), []domain.IndexedDocument{{Content: "a"}}))
	_, err = c.SearchWithScores(context.Background(), "a", 3)
	require.Error(t, err)
	require.NoError(t, c.Index(context.Background(), nil))
}

func TestPointID(t *testing.T) {
	t.Parallel()
	a := vector.PointID("job_skills", "Nurse")
	assert.Equal(t, a, vector.PointID("job_skills", "Nurse"))
	assert.NotEqual(t, a, vector.PointID("job_skills", "Chef"))
	assert.NotEqual(t, a, vector.PointID("other", "Nurse"))
	assert.Len(t, a, 36)
}
