package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// CSV headers shared by the job title list and the job skills dataset.
const (
	ColumnJobTitle       = "Job Title"
	ColumnTrendingSkills = "Trending Skills"
)

// DatasetStats summarises a dataset build.
type DatasetStats struct {
	TimeTaken          time.Duration `json:"time_taken"`
	JobsCollected      int           `json:"jobs_collected"`
	TotalKeywords      int           `json:"total_keywords"`
	AverageKeywordsJob float64       `json:"average_keywords_per_job"`
}

// DatasetBuilder scrapes trending skills for a list of job titles.
type DatasetBuilder struct {
	Source      domain.KeywordSource
	MaxKeywords int
	// Pacing is the pause between titles to stay under search engine limits.
	Pacing time.Duration
}

// LoadJobTitles reads the "Job Title" column of a CSV file.
func LoadJobTitles(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.DataSourceError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, &domain.DataSourceError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}
	col := columnIndex(header, ColumnJobTitle)
	if col < 0 {
		return nil, &domain.DataSourceError{Path: path, Err: fmt.Errorf("missing %q column", ColumnJobTitle)}
	}
	var titles []string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return titles, &domain.DataSourceError{Path: path, Err: err}
		}
		if col >= len(rec) {
			continue
		}
		if t := strings.TrimSpace(rec[col]); t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

// Build scrapes each title in order. Titles with no keywords are dropped.
func (b DatasetBuilder) Build(ctx context.Context, titles []string) ([]domain.KeywordRecord, DatasetStats, error) {
	start := time.Now()
	records := make([]domain.KeywordRecord, 0, len(titles))
	for i, title := range titles {
		if err := ctx.Err(); err != nil {
			return records, statsFor(records, time.Since(start)), err
		}
		if i > 0 && b.Pacing > 0 {
			select {
			case <-ctx.Done():
				return records, statsFor(records, time.Since(start)), ctx.Err()
			case <-time.After(b.Pacing):
			}
		}
		slog.Info("fetching trending skills", slog.String("job_title", title), slog.Int("n", i+1), slog.Int("of", len(titles)))
		kws, err := b.Source.FetchKeywords(ctx, title, b.MaxKeywords)
		if err != nil {
			slog.Error("scrape failed", slog.String("job_title", title), slog.Any("error", err))
			continue
		}
		if len(kws) == 0 {
			continue
		}
		records = append(records, domain.KeywordRecord{JobTitle: title, TrendingSkills: kws})
	}
	return records, statsFor(records, time.Since(start)), nil
}

func statsFor(records []domain.KeywordRecord, took time.Duration) DatasetStats {
	st := DatasetStats{TimeTaken: took, JobsCollected: len(records)}
	for _, r := range records {
		st.TotalKeywords += len(r.TrendingSkills)
	}
	if st.JobsCollected > 0 {
		st.AverageKeywordsJob = float64(st.TotalKeywords) / float64(st.JobsCollected)
	}
	return st
}

// WriteDataset writes records as a two column CSV, creating parent directories.
func WriteDataset(path string, records []domain.KeywordRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &domain.DataSourceError{Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &domain.DataSourceError{Path: path, Err: err}
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{ColumnJobTitle, ColumnTrendingSkills})
	for _, r := range records {
		_ = w.Write([]string{r.JobTitle, EncodeKeywords(r.TrendingSkills)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return &domain.DataSourceError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &domain.DataSourceError{Path: path, Err: err}
	}
	return nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
			return i
		}
	}
	return -1
}
