package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// CombinedColumns is the header of the combined evaluation CSV.
var CombinedColumns = []string{
	"Input File",
	"Profession",
	"Experience Level",
	"Keywords",
	"Background",
	"Similarity Score Input",
	"Elevator Pitch",
	"About Me",
	"Retrieved Keywords",
	"Evaluation Keywords Quality",
	"Evaluation Relevance",
	"Evaluation Hallucination",
	"Evaluation Overall Quality",
	"Evaluation Explanation",
}

// CombineStats reports the rows written to the combined CSV.
type CombineStats struct {
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
	Path    string `json:"path"`
}

// Combine joins inputs, profiles and evaluations by sorted file name into a
// single CSV. Differing file counts return a CountMismatchError and write nothing.
// Unreadable triples are logged and left out.
func Combine(p BatchPaths) (CombineStats, error) {
	inputs, err := listJSON(p.InputDir)
	if err != nil {
		return CombineStats{}, err
	}
	outputs, err := listJSON(p.OutputDir)
	if err != nil {
		return CombineStats{}, err
	}
	evals, err := listJSON(p.EvalDir)
	if err != nil {
		return CombineStats{}, err
	}
	if len(inputs) != len(outputs) || len(outputs) != len(evals) {
		return CombineStats{}, &domain.CountMismatchError{Inputs: len(inputs), Outputs: len(outputs), Evaluations: len(evals)}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(CombinedColumns)
	st := CombineStats{Path: p.CSVPath}
	for i := range inputs {
		row, err := combineRow(p, inputs[i], outputs[i], evals[i])
		if err != nil {
			st.Skipped++
			slog.Error("skipping evaluation triple",
				slog.String("input", inputs[i]),
				slog.String("output", outputs[i]),
				slog.String("evaluation", evals[i]),
				slog.Any("error", err))
			continue
		}
		_ = w.Write(row)
		st.Rows++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return st, err
	}
	if err := os.MkdirAll(filepath.Dir(p.CSVPath), 0o755); err != nil {
		return st, &domain.DataSourceError{Path: p.CSVPath, Err: err}
	}
	if err := os.WriteFile(p.CSVPath, buf.Bytes(), 0o644); err != nil {
		return st, &domain.DataSourceError{Path: p.CSVPath, Err: err}
	}
	slog.Info("combined csv written", slog.String("path", p.CSVPath), slog.Int("rows", st.Rows))
	return st, nil
}

func combineRow(p BatchPaths, inputName, outputName, evalName string) ([]string, error) {
	var in domain.UserInput
	if err := readJSON(filepath.Join(p.InputDir, inputName), &in); err != nil {
		return nil, err
	}
	var profile domain.GeneratedProfile
	if err := readJSON(filepath.Join(p.OutputDir, outputName), &profile); err != nil {
		return nil, err
	}
	var ev domain.EvaluationResult
	if err := readJSON(filepath.Join(p.EvalDir, evalName), &ev); err != nil {
		return nil, err
	}
	return []string{
		inputName,
		in.Profession,
		string(in.ExperienceLevel),
		strings.Join(in.Keywords, ", "),
		in.Background,
		strconv.Itoa(in.SimilarityScoreInput),
		profile.ElevatorPitch,
		profile.AboutMe,
		strings.Join(profile.RetrievedKeywords, ", "),
		strconv.Itoa(ev.Evaluation.KeywordsQuality),
		strconv.Itoa(ev.Evaluation.Relevance),
		strconv.Itoa(ev.Evaluation.Hallucination),
		strconv.Itoa(ev.Evaluation.OverallQuality),
		ev.Explanation,
	}, nil
}

// PublishCombined uploads the combined CSV to store under its base name.
func PublishCombined(ctx context.Context, store domain.ArtifactStore, csvPath string) error {
	body, err := os.ReadFile(csvPath)
	if err != nil {
		return &domain.DataSourceError{Path: csvPath, Err: err}
	}
	if err := store.Put(ctx, filepath.Base(csvPath), "text/csv", body); err != nil {
		return fmt.Errorf("op=combine.Publish: %w", err)
	}
	return nil
}
