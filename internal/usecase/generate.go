package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/observability"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/pkg/textx"
)

var profileResponseSchema = ai.MustSchema(profileSchema)

// KeywordRetriever is satisfied by Retriever.
type KeywordRetriever interface {
	Retrieve(ctx context.Context, profession string, threshold float64) (domain.RetrievalResult, error)
}

// Generator writes an elevator pitch and About Me section for a user.
type Generator struct {
	Retriever   KeywordRetriever
	Chat        domain.ChatModel
	Model       string
	MaxTokens   int
	Temperature float64
	// MaxBackgroundTokens caps the background pasted into the prompt; 0 disables it.
	MaxBackgroundTokens int
	Tokens              *tokencount.Counter
}

type profileResponse struct {
	ElevatorPitch     string   `json:"elevator_pitch"`
	AboutMe           string   `json:"about_me"`
	RetrievedKeywords []string `json:"retrieved_keywords"`
	Reason            string   `json:"reason"`
}

// Generate retrieves trending keywords, prompts the chat model once and
// validates its JSON reply. Model and parse failures are *domain.GenerationError.
func (g Generator) Generate(ctx context.Context, in domain.UserInput) (domain.GeneratedProfile, error) {
	start := time.Now()
	lg := observability.LoggerFromContext(ctx)
	if in.ExperienceLevel == "" {
		in.ExperienceLevel = domain.LevelMid
	}

	ret, err := g.Retriever.Retrieve(ctx, in.Profession, RelevanceThreshold(in.SimilarityScoreInput))
	if err != nil {
		observability.GenerationsTotal.WithLabelValues("retrieval_error").Inc()
		return domain.GeneratedProfile{}, err
	}

	keywords := textx.UniqueStrings(in.Keywords, ret.Keywords)
	background := g.background(in.Background)
	raw, err := g.Chat.Complete(ctx, domain.ChatRequest{
		System:      profileSystemPrompt,
		Prompt:      profilePrompt(in, keywords, background),
		Model:       g.Model,
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
		JSON:        true,
	})
	if err != nil {
		observability.GenerationsTotal.WithLabelValues("model_error").Inc()
		return domain.GeneratedProfile{}, &domain.GenerationError{Err: fmt.Errorf("op=generate.Complete: %w", err)}
	}

	var resp profileResponse
	if err := profileResponseSchema.Decode(raw, &resp); err != nil {
		observability.GenerationsTotal.WithLabelValues("parse_error").Inc()
		lg.Warn("unparseable profile response", slog.String("profession", in.Profession), slog.Any("error", err))
		return domain.GeneratedProfile{}, &domain.GenerationError{Raw: raw, Err: err}
	}

	observability.GenerationsTotal.WithLabelValues("ok").Inc()
	lg.Info("profile generated",
		slog.String("profession", in.Profession),
		slog.String("keyword_source", ret.Source),
		slog.Int("keywords", len(keywords)),
		slog.Duration("took", time.Since(start)))

	return domain.GeneratedProfile{
		ElevatorPitch:     strings.TrimSpace(resp.ElevatorPitch),
		AboutMe:           strings.TrimSpace(resp.AboutMe),
		RetrievedKeywords: keywords,
		KeywordsUsed:      textx.UniqueStrings(resp.RetrievedKeywords),
		Reason:            strings.TrimSpace(resp.Reason),
		SimilarityScores:  domain.SimilarityScores{Min: ret.MinScore, Max: ret.MaxScore},
	}, nil
}

func (g Generator) background(s string) string {
	s = textx.SanitizeText(s)
	if g.MaxBackgroundTokens <= 0 || s == "" || utf8.RuneCountInString(s) <= g.MaxBackgroundTokens {
		return s
	}
	tc := g.Tokens
	if tc == nil {
		tc = tokencount.NewCounter()
	}
	return tc.Truncate(s, g.Model, g.MaxBackgroundTokens)
}
