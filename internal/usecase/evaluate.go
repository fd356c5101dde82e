package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/observability"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

var evaluationResponseSchema = ai.MustSchema(evaluationSchema)

// Evaluator scores a generated profile against its input with an LLM judge.
type Evaluator struct {
	Chat      domain.ChatModel
	Model     string
	MaxTokens int
}

// Evaluate asks the judge model for rubric scores. An unparseable or out of
// range reply is a *domain.ParseError carrying the raw text.
func (e Evaluator) Evaluate(ctx context.Context, in domain.UserInput, profile domain.GeneratedProfile) (domain.EvaluationResult, error) {
	inJSON, err := json.MarshalIndent(in, "", "    ")
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	outJSON, err := json.MarshalIndent(profile, "", "    ")
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	raw, err := e.Chat.Complete(ctx, domain.ChatRequest{
		System:      evaluationSystemPrompt,
		Prompt:      evaluationPrompt(inJSON, outJSON),
		Model:       e.Model,
		MaxTokens:   e.MaxTokens,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("op=evaluate.Complete: %w", err)
	}
	var res domain.EvaluationResult
	if err := evaluationResponseSchema.Decode(raw, &res); err != nil {
		return domain.EvaluationResult{}, err
	}
	s := res.Evaluation
	observability.ObserveEvaluation(s.KeywordsQuality, s.Relevance, s.Hallucination, s.OverallQuality)
	return res, nil
}

// BatchStats counts the outcome of a batch step.
type BatchStats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ProfileEvaluator is satisfied by Evaluator.
type ProfileEvaluator interface {
	Evaluate(ctx context.Context, in domain.UserInput, profile domain.GeneratedProfile) (domain.EvaluationResult, error)
}

// BatchEvaluator scores every saved (input, profile) pair.
type BatchEvaluator struct {
	Evaluator ProfileEvaluator
}

// Run pairs input and profile files by sorted name. Differing counts abort
// before any model call; a failing pair is logged and skipped.
func (b BatchEvaluator) Run(ctx context.Context, p BatchPaths) (BatchStats, error) {
	inputs, err := listJSON(p.InputDir)
	if err != nil {
		return BatchStats{}, err
	}
	outputs, err := listJSON(p.OutputDir)
	if err != nil {
		return BatchStats{}, err
	}
	slog.Info("evaluation batch", slog.Int("inputs", len(inputs)), slog.Int("outputs", len(outputs)))
	if len(inputs) != len(outputs) {
		return BatchStats{}, &domain.CountMismatchError{Inputs: len(inputs), Outputs: len(outputs), Evaluations: -1}
	}

	st := BatchStats{Total: len(inputs)}
	for i := range inputs {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if err := b.evaluatePair(ctx, p, inputs[i], outputs[i]); err != nil {
			st.Failed++
			attrs := []any{slog.String("input", inputs[i]), slog.String("output", outputs[i]), slog.Any("error", err)}
			if raw, ok := domain.RawResponse(err); ok {
				attrs = append(attrs, slog.String("raw", raw))
			}
			slog.Error("evaluation failed", attrs...)
			continue
		}
		st.Succeeded++
	}
	return st, nil
}

func (b BatchEvaluator) evaluatePair(ctx context.Context, p BatchPaths, inputName, outputName string) error {
	var in domain.UserInput
	if err := readJSON(filepath.Join(p.InputDir, inputName), &in); err != nil {
		return err
	}
	var profile domain.GeneratedProfile
	if err := readJSON(filepath.Join(p.OutputDir, outputName), &profile); err != nil {
		return err
	}
	res, err := b.Evaluator.Evaluate(ctx, in, profile)
	if err != nil {
		return err
	}
	dst := filepath.Join(p.EvalDir, "evaluation_"+inputName)
	if err := writeJSON(dst, res); err != nil {
		return err
	}
	slog.Info("evaluation saved", slog.String("path", dst), slog.Int("overall_quality", res.Evaluation.OverallQuality))
	return nil
}
