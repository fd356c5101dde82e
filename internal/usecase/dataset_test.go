package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain/mocks"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/usecase"
)

func TestLoadJobTitles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "job_titles.csv")
	writeFile(t, path, "\ufeffId,Job Title\n1,Nurse\n2,  \n3,\"Engineer, Civil\"\n4\n")

	titles, err := usecase.LoadJobTitles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nurse", "Engineer, Civil"}, titles)

	writeFile(t, filepath.Join(dir, "bad.csv"), "Title\nNurse\n")
	_, err = usecase.LoadJobTitles(filepath.Join(dir, "bad.csv"))
	require.ErrorIs(t, err, domain.ErrDataSource)

	_, err = usecase.LoadJobTitles(filepath.Join(dir, "missing.csv"))
	require.ErrorIs(t, err, domain.ErrDataSource)
}

func TestDatasetBuilder_Build(t *testing.T) {
	t.Parallel()
	src := &mocks.MockKeywordSource{}
	src.On("FetchKeywords", mock.Anything, "Nurse", 5).Return([]string{"EMR", "Triage"}, nil)
	src.On("FetchKeywords", mock.Anything, "Hermit", 5).Return([]string{}, nil)
	src.On("FetchKeywords", mock.Anything, "Chef", 5).Return(nil, &domain.NetworkError{Op: "scrape", Err: errors.New("429")})
	src.On("FetchKeywords", mock.Anything, "Pilot", 5).Return([]string{"ATC", "CRM", "IFR", "VFR"}, nil)

	recs, st, err := usecase.DatasetBuilder{Source: src, MaxKeywords: 5}.Build(context.Background(), []string{"Nurse", "Hermit", "Chef", "Pilot"})
	require.NoError(t, err)
	src.AssertExpectations(t)

	assert.Equal(t, []domain.KeywordRecord{
		{JobTitle: "Nurse", TrendingSkills: []string{"EMR", "Triage"}},
		{JobTitle: "Pilot", TrendingSkills: []string{"ATC", "CRM", "IFR", "VFR"}},
	}, recs)
	assert.Equal(t, 2, st.JobsCollected)
	assert.Equal(t, 6, st.TotalKeywords)
	assert.InDelta(t, 3.0, st.AverageKeywordsJob, 1e-12)
}

func TestDataset_WriteThenLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "job_skills.csv")
	require.NoError(t, usecase.WriteDataset(path, []domain.KeywordRecord{
		{JobTitle: "Nurse", TrendingSkills: []string{"EMR", "Women's Health"}},
		{JobTitle: "Chef", TrendingSkills: []string{"Plating"}},
	}))

	rows, err := usecase.LoadKeywordRecords(path, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Nurse", rows[0].JobTitle)
	kws, err := usecase.DecodeKeywords(rows[0].Keywords)
	require.NoError(t, err)
	assert.Equal(t, []string{"EMR", "Women's Health"}, kws)

	limited, err := usecase.LoadKeywordRecords(path, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
