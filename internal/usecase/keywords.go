// Package usecase contains the profile pipeline: dataset building, indexing,
// retrieval, generation, evaluation and batch reporting.
package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// DecodeKeywords parses a stored keyword list. It accepts JSON arrays and the
// single-quoted flow lists found in older datasets, e.g. ['SQL', 'Excel'].
// Anything other than a flat list of strings is rejected.
func DecodeKeywords(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, &domain.ParseError{Raw: raw, Err: errors.New("keyword list must be a bracketed list")}
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, &domain.ParseError{Raw: raw, Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, &domain.ParseError{Raw: raw, Err: errors.New("keyword list is not a sequence")}
	}
	seq := doc.Content[0]
	out := make([]string, 0, len(seq.Content))
	for i, n := range seq.Content {
		if n.Kind != yaml.ScalarNode || n.Tag != "!!str" {
			return nil, &domain.ParseError{Raw: raw, Err: fmt.Errorf("item %d is not a string", i)}
		}
		out = append(out, n.Value)
	}
	return out, nil
}

// EncodeKeywords serialises keywords the way they are stored in metadata and CSVs.
func EncodeKeywords(keywords []string) string {
	if keywords == nil {
		keywords = []string{}
	}
	b, _ := json.Marshal(keywords)
	return string(b)
}
