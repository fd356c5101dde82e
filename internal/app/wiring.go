// Package app wires application components and startup helpers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai/anthropic"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai/ollama"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai/openai"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/scraper"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/storage/s3"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/vector"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/vector/local"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/vector/qdrant"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/config"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/retry"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/usecase"
)

// Components holds every long-lived dependency of the server and the CLI.
type Components struct {
	Cfg       config.Config
	Chat      domain.ChatModel
	Embedder  domain.Embedder
	Store     *vector.Collection
	Scraper   *scraper.Client
	Retriever usecase.Retriever
	Generator usecase.Generator
	Evaluator usecase.Evaluator

	closers []func() error
}

// RetryPolicy converts environment settings into a retry.Policy.
func RetryPolicy(s config.RetrySettings, name string) retry.Policy {
	if s.Multiplier <= 1 {
		return retry.Fixed(s.MaxAttempts, s.InitialDelay, nil).Named(name)
	}
	return retry.Exponential(s.MaxAttempts, s.InitialDelay, s.MaxDelay, s.Multiplier, nil).Named(name)
}

// NewRedisClient returns nil when no Redis URL is configured.
func NewRedisClient(cfg config.Config) (redis.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: redis url: %v", domain.ErrInvalidArgument, err)
	}
	return redis.NewClient(opts), nil
}

// NewEmbedder builds the configured embedder behind a query cache.
// A non-nil rdb moves the cache to Redis so it is shared across processes.
func NewEmbedder(cfg config.Config, rdb redis.UniversalClient) (domain.Embedder, error) {
	var base domain.Embedder
	pol := RetryPolicy(cfg.AIRetry(), "embed")
	switch cfg.EmbeddingsProvider {
	case "ollama":
		base = ollama.New(ollama.Config{BaseURL: cfg.OllamaBaseURL, Model: cfg.EmbeddingsModel, Retry: pol})
	case "openai":
		cli, err := openai.New(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			EmbeddingModel: cfg.EmbeddingsModel,
			Retry:          pol,
		})
		if err != nil {
			return nil, err
		}
		base = cli
	default:
		return nil, fmt.Errorf("%w: unknown embeddings provider %q", domain.ErrInvalidArgument, cfg.EmbeddingsProvider)
	}
	if rdb != nil {
		return ai.NewRedisEmbedCache(base, rdb, cfg.EmbeddingsModel, cfg.EmbedCacheTTL), nil
	}
	return ai.NewEmbedCache(base, cfg.EmbedCacheSize), nil
}

// NewChatModel builds the chat model for cfg.LLMProvider. The returned closer
// is never nil.
func NewChatModel(ctx context.Context, cfg config.Config) (domain.ChatModel, func() error, error) {
	noop := func() error { return nil }
	pol := RetryPolicy(cfg.AIRetry(), "chat")
	switch cfg.LLMProvider {
	case "openai":
		cli, err := openai.New(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingsModel,
			MaxTokens:      cfg.ChatMaxTokens,
			Temperature:    cfg.ChatTemperature,
			Retry:          pol,
		})
		if err != nil {
			return nil, noop, err
		}
		return cli, noop, nil
	case "gemini":
		cli, err := gemini.New(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.ChatModel, MaxTokens: cfg.ChatMaxTokens, Retry: pol})
		if err != nil {
			return nil, noop, err
		}
		return cli, cli.Close, nil
	case "anthropic":
		cli, err := anthropic.New(anthropic.Config{APIKey: cfg.AnthropicAPIKey, Model: cfg.ChatModel, MaxTokens: cfg.ChatMaxTokens, Retry: pol})
		if err != nil {
			return nil, noop, err
		}
		return cli, noop, nil
	}
	return nil, noop, fmt.Errorf("%w: unknown llm provider %q", domain.ErrInvalidArgument, cfg.LLMProvider)
}

// NewBackend opens the configured vector backend.
func NewBackend(cfg config.Config) (domain.VectorBackend, func() error, error) {
	switch cfg.VectorBackend {
	case "qdrant":
		cli := qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey, qdrant.WithRetry(RetryPolicy(cfg.AIRetry(), "qdrant")))
		return cli, func() error { return nil }, nil
	case "local":
		st, err := local.Open(cfg.PersistDirectory)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidArgument, cfg.VectorBackend)
}

// NewScraper builds the trending keyword scraper.
func NewScraper(cfg config.Config) *scraper.Client {
	return scraper.New(scraper.Options{
		BaseURL:   cfg.ScrapeBaseURL,
		UserAgent: cfg.ScrapeUserAgent,
		Timeout:   cfg.ScrapeTimeout,
		Retry:     RetryPolicy(cfg.ScrapeRetry(), "scrape"),
	})
}

// NewArtifactStore returns nil when no bucket is configured.
func NewArtifactStore(ctx context.Context, cfg config.Config) (domain.ArtifactStore, error) {
	if !cfg.ArtifactsEnabled() {
		return nil, nil
	}
	up, err := s3.New(ctx, s3.Options{
		Bucket:          cfg.ArtifactBucket,
		Prefix:          cfg.ArtifactPrefix,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		MaxAttempts:     cfg.AIRetry().MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	return up, nil
}

// Build wires the retrieval and generation stack. Call Close when done.
func Build(ctx context.Context, cfg config.Config) (*Components, error) {
	c := &Components{Cfg: cfg}
	rdb, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		c.closers = append(c.closers, rdb.Close)
	}
	if c.Embedder, err = NewEmbedder(cfg, rdb); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("op=app.Build embedder: %w", err)
	}
	chat, closeChat, err := NewChatModel(ctx, cfg)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("op=app.Build chat: %w", err)
	}
	c.Chat = chat
	c.closers = append(c.closers, closeChat)

	backend, closeBackend, err := NewBackend(cfg)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("op=app.Build backend: %w", err)
	}
	c.closers = append(c.closers, closeBackend)
	c.Store = vector.NewCollection(c.Embedder, backend, cfg.CollectionName)
	c.Scraper = NewScraper(cfg)

	c.Retriever = usecase.Retriever{
		Store:       c.Store,
		Fallback:    c.Scraper,
		TopK:        cfg.RetrievalTopK,
		MaxKeywords: cfg.MaxKeywords,
	}
	c.Generator = usecase.Generator{
		Retriever:           c.Retriever,
		Chat:                c.Chat,
		Model:               cfg.ChatModel,
		MaxTokens:           cfg.ChatMaxTokens,
		Temperature:         cfg.ChatTemperature,
		MaxBackgroundTokens: cfg.MaxBackgroundTokens,
		Tokens:              tokencount.NewCounter(),
	}
	c.Evaluator = usecase.Evaluator{Chat: c.Chat, Model: cfg.EvaluationModel(), MaxTokens: cfg.ChatMaxTokens}
	slog.Info("components wired",
		slog.String("llm_provider", cfg.LLMProvider),
		slog.String("embeddings_provider", cfg.EmbeddingsProvider),
		slog.String("vector_backend", cfg.VectorBackend),
		slog.String("collection", cfg.CollectionName),
		slog.Bool("redis_cache", rdb != nil))
	return c, nil
}

// Close releases components in reverse construction order.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
