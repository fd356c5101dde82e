package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/config"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// DefaultBatchSize is the number of random inputs a batch run generates.
const DefaultBatchSize = 15

// ProfileGenerator is satisfied by Generator.
type ProfileGenerator interface {
	Generate(ctx context.Context, in domain.UserInput) (domain.GeneratedProfile, error)
}

// SampleInputs draws n user inputs from pools. The same seed yields the same inputs.
func SampleInputs(pools config.InputPools, n int, seed uint64) []domain.UserInput {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]domain.UserInput, 0, n)
	for range n {
		set := pools.KeywordSets[r.IntN(len(pools.KeywordSets))]
		k := min(len(set), 2+r.IntN(2))
		kws := make([]string, 0, k)
		for _, idx := range r.Perm(len(set))[:k] {
			kws = append(kws, set[idx])
		}
		in := domain.UserInput{
			Profession:           pools.Professions[r.IntN(len(pools.Professions))],
			ExperienceLevel:      domain.ExperienceLevel(pools.ExperienceLevels[r.IntN(len(pools.ExperienceLevels))]),
			Keywords:             kws,
			SimilarityScoreInput: pools.SimilarityScores[r.IntN(len(pools.SimilarityScores))],
		}
		if len(pools.Backgrounds) > 0 {
			in.Background = pools.Backgrounds[r.IntN(len(pools.Backgrounds))]
		}
		out = append(out, in)
	}
	return out
}

// BatchGenerator generates profiles for a list of inputs and saves each pair.
type BatchGenerator struct {
	Generator ProfileGenerator
}

// Run saves user_input_NNN.json and profile_NNN.json for every successful
// generation. Numbering is contiguous over successes so inputs and profiles
// always pair by sorted name; failures are logged and skipped.
func (b BatchGenerator) Run(ctx context.Context, p BatchPaths, inputs []domain.UserInput) (BatchStats, error) {
	st := BatchStats{Total: len(inputs)}
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		slog.Info("processing user input", slog.Int("n", i+1), slog.Int("of", len(inputs)), slog.String("profession", in.Profession))
		profile, err := b.Generator.Generate(ctx, in)
		if err != nil {
			st.Failed++
			attrs := []any{slog.Int("n", i+1), slog.Any("error", err)}
			if raw, ok := domain.RawResponse(err); ok {
				attrs = append(attrs, slog.String("raw", raw))
			}
			slog.Error("profile generation failed", attrs...)
			continue
		}
		seq := st.Succeeded + 1
		if err := writeJSON(filepath.Join(p.InputDir, fmt.Sprintf("user_input_%03d.json", seq)), in); err != nil {
			return st, err
		}
		if err := writeJSON(filepath.Join(p.OutputDir, fmt.Sprintf("profile_%03d.json", seq)), profile); err != nil {
			return st, err
		}
		st.Succeeded++
		slog.Info("profile saved",
			slog.Int("seq", seq),
			slog.Any("similarity_scores", profile.SimilarityScores))
	}
	return st, nil
}
