package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed pools.yaml
var defaultPools []byte

// InputPools are the value sets batch generation samples user inputs from.
type InputPools struct {
	Professions      []string   `yaml:"professions"`
	ExperienceLevels []string   `yaml:"experience_levels"`
	KeywordSets      [][]string `yaml:"keyword_sets"`
	Backgrounds      []string   `yaml:"backgrounds"`
	SimilarityScores []int      `yaml:"similarity_scores"`
}

// DefaultInputPools returns the built-in pools.
func DefaultInputPools() (InputPools, error) {
	return parsePools(defaultPools)
}

// LoadInputPools reads pools from a YAML file. An empty path yields the defaults.
func LoadInputPools(path string) (InputPools, error) {
	if path == "" {
		return DefaultInputPools()
	}
	b, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return InputPools{}, fmt.Errorf("op=config.LoadInputPools: %w", err)
	}
	return parsePools(b)
}

func parsePools(b []byte) (InputPools, error) {
	var p InputPools
	if err := yaml.Unmarshal(b, &p); err != nil {
		return InputPools{}, fmt.Errorf("op=config.parsePools: %w", err)
	}
	switch {
	case len(p.Professions) == 0:
		return InputPools{}, fmt.Errorf("op=config.parsePools: professions is empty")
	case len(p.ExperienceLevels) == 0:
		return InputPools{}, fmt.Errorf("op=config.parsePools: experience_levels is empty")
	case len(p.KeywordSets) == 0:
		return InputPools{}, fmt.Errorf("op=config.parsePools: keyword_sets is empty")
	case len(p.SimilarityScores) == 0:
		return InputPools{}, fmt.Errorf("op=config.parsePools: similarity_scores is empty")
	}
	for i, set := range p.KeywordSets {
		if len(set) == 0 {
			return InputPools{}, fmt.Errorf("op=config.parsePools: keyword_sets[%d] is empty", i)
		}
	}
	return p, nil
}
