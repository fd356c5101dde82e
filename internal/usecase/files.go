package usecase

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// Directory and file names used by the batch pipeline.
const (
	GenerateSubdir  = "generate_profile"
	EvaluateSubdir  = "evaluate_profile_generation"
	CombinedCSVName = "API_evaluation_by_ai.csv"
)

// BatchPaths locates the artifacts of one generate, evaluate, combine cycle.
type BatchPaths struct {
	InputDir  string
	OutputDir string
	EvalDir   string
	CSVPath   string
}

// PathsFor derives batch paths from the configured input and output roots.
func PathsFor(inputRoot, outputRoot string) BatchPaths {
	return BatchPaths{
		InputDir:  filepath.Join(inputRoot, GenerateSubdir),
		OutputDir: filepath.Join(outputRoot, GenerateSubdir),
		EvalDir:   filepath.Join(outputRoot, EvaluateSubdir),
		CSVPath:   filepath.Join(outputRoot, CombinedCSVName),
	}
}

// listJSON returns the sorted .json file names in dir. A missing dir is empty.
func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, &domain.DataSourceError{Path: dir, Err: err}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return &domain.DataSourceError{Path: path, Err: err}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &domain.DataSourceError{Path: path, Err: err}
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &domain.DataSourceError{Path: path, Err: err}
	}
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return &domain.DataSourceError{Path: path, Err: err}
	}
	return nil
}
