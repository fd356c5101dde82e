package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// IndexStats reports what an index build did.
type IndexStats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Batches int `json:"batches"`
}

// DatasetRow is one raw dataset line. Keywords stay encoded until indexing so
// a single malformed row can be skipped without failing the load.
type DatasetRow struct {
	Line     int
	JobTitle string
	Keywords string
}

// LoadKeywordRecords reads up to limit rows (0 means all) of the job skills CSV.
// A missing or unreadable file yields an empty slice and a DataSourceError.
func LoadKeywordRecords(path string, limit int) ([]DatasetRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return []DatasetRow{}, &domain.DataSourceError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return []DatasetRow{}, &domain.DataSourceError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}
	titleCol, skillsCol := columnIndex(header, ColumnJobTitle), columnIndex(header, ColumnTrendingSkills)
	if titleCol < 0 || skillsCol < 0 {
		return []DatasetRow{}, &domain.DataSourceError{Path: path, Err: errors.New("missing Job Title or Trending Skills column")}
	}
	rows := []DatasetRow{}
	for line := 2; limit <= 0 || len(rows) < limit; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return []DatasetRow{}, &domain.DataSourceError{Path: path, Err: err}
		}
		row := DatasetRow{Line: line}
		if titleCol < len(rec) {
			row.JobTitle = strings.TrimSpace(rec[titleCol])
		}
		if skillsCol < len(rec) {
			row.Keywords = rec[skillsCol]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// IndexBuilder writes dataset rows into a vector store in batches.
type IndexBuilder struct {
	Store     domain.VectorStore
	BatchSize int
}

// Build indexes rows. Rows with an empty title or a malformed keyword list are
// logged and skipped. A failing batch aborts the build.
func (b IndexBuilder) Build(ctx context.Context, rows []DatasetRow) (IndexStats, error) {
	size := b.BatchSize
	if size <= 0 {
		size = 100
	}
	var st IndexStats
	docs := make([]domain.IndexedDocument, 0, size)
	flush := func() error {
		if len(docs) == 0 {
			return nil
		}
		if err := b.Store.Index(ctx, docs); err != nil {
			return fmt.Errorf("op=index.Build batch %d: %w", st.Batches+1, err)
		}
		st.Batches++
		st.Indexed += len(docs)
		slog.Info("indexed batch", slog.Int("batch", st.Batches), slog.Int("documents", len(docs)))
		docs = make([]domain.IndexedDocument, 0, size)
		return nil
	}
	for _, row := range rows {
		doc, err := documentFor(row)
		if err != nil {
			st.Skipped++
			slog.Error("skipping dataset row", slog.Int("line", row.Line), slog.String("job_title", row.JobTitle), slog.Any("error", err))
			continue
		}
		docs = append(docs, doc)
		if len(docs) == size {
			if err := flush(); err != nil {
				return st, err
			}
		}
	}
	if err := flush(); err != nil {
		return st, err
	}
	return st, nil
}

func documentFor(row DatasetRow) (domain.IndexedDocument, error) {
	if row.JobTitle == "" {
		return domain.IndexedDocument{}, errors.New("empty job title")
	}
	kws, err := DecodeKeywords(row.Keywords)
	if err != nil {
		return domain.IndexedDocument{}, err
	}
	return domain.IndexedDocument{
		Content:  row.JobTitle,
		Metadata: domain.DocumentMetadata{TrendingKeywords: EncodeKeywords(kws)},
	}, nil
}
