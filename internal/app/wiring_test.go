package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/app"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/config"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain/mocks"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		AppEnv:             "test",
		EmbeddingsProvider: "ollama",
		EmbeddingsModel:    "nomic-embed-text",
		OllamaBaseURL:      "http://127.0.0.1:1",
		EmbedCacheSize:     16,
		LLMProvider:        "openai",
		ChatModel:          "gpt-3.5-turbo",
		EvalModel:          "gpt-4",
		ChatMaxTokens:      256,
		OpenAIAPIKey:       "sk-test",
		VectorBackend:      "local",
		CollectionName:     "job_skills",
		PersistDirectory:   t.TempDir(),
		RetrievalTopK:      50,
		MaxKeywords:        10,
		ScrapeMaxAttempts:  1,
	}
}

func TestRetryPolicy(t *testing.T) {
	t.Parallel()
	fixed := app.RetryPolicy(config.RetrySettings{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}, "scrape")
	assert.Equal(t, 3, fixed.MaxAttempts)
	assert.Equal(t, "scrape", fixed.Name)
	assert.Equal(t, time.Second, fixed.Backoff(3))

	exp := app.RetryPolicy(config.RetrySettings{MaxAttempts: 4, InitialDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2}, "chat")
	assert.Equal(t, time.Second, exp.Backoff(1))
	assert.Equal(t, 2*time.Second, exp.Backoff(2))
	assert.Equal(t, 3*time.Second, exp.Backoff(3))
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()
	rdb, err := app.NewRedisClient(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, rdb)

	_, err = app.NewRedisClient(config.Config{RedisURL: "mysql://nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	mr := miniredis.RunT(t)
	rdb, err = app.NewRedisClient(config.Config{RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
}

func TestNewChatModel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{name: "openai", mutate: func(*config.Config) {}},
		{name: "anthropic", mutate: func(c *config.Config) { c.LLMProvider = "anthropic"; c.AnthropicAPIKey = "key" }},
		{name: "missing key", mutate: func(c *config.Config) { c.OpenAIAPIKey = "" }, wantErr: domain.ErrInvalidArgument},
		{name: "unknown provider", mutate: func(c *config.Config) { c.LLMProvider = "mistral" }, wantErr: domain.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t)
			tt.mutate(&cfg)
			chat, closeFn, err := app.NewChatModel(context.Background(), cfg)
			require.NotNil(t, closeFn)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, chat)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, chat)
			assert.NoError(t, closeFn())
		})
	}
}

func TestNewBackend(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	backend, closeFn, err := app.NewBackend(cfg)
	require.NoError(t, err)
	require.NoError(t, backend.Ping(context.Background()))
	require.NoError(t, closeFn())

	cfg.VectorBackend = "qdrant"
	cfg.QdrantURL = "http://127.0.0.1:6333"
	backend, closeFn, err = app.NewBackend(cfg)
	require.NoError(t, err)
	assert.NotNil(t, backend)
	assert.NoError(t, closeFn())

	cfg.VectorBackend = "faiss"
	_, _, err = app.NewBackend(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestNewEmbedder(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	emb, err := app.NewEmbedder(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, emb)

	cfg.EmbeddingsProvider = "cohere"
	_, err = app.NewEmbedder(cfg, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestNewArtifactStore_Disabled(t *testing.T) {
	t.Parallel()
	store, err := app.NewArtifactStore(context.Background(), config.Config{})
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestBuild(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	c, err := app.Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "job_skills", c.Store.Name())
	assert.Equal(t, 50, c.Retriever.TopK)
	assert.Equal(t, "gpt-4", c.Evaluator.Model)
	assert.Equal(t, "gpt-3.5-turbo", c.Generator.Model)
	assert.NotNil(t, c.Generator.Tokens)
	require.NoError(t, c.Store.Ping(context.Background()))
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())

	cfg.LLMProvider = "mistral"
	_, err = app.Build(context.Background(), cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestBuildProbes(t *testing.T) {
	t.Parallel()
	store := &mocks.MockVectorStore{}
	store.On("Ping", mock.Anything).Return(nil)
	chat := &mocks.MockChatModel{}
	chat.On("Ping", mock.Anything).Return(errors.New("invalid api key"))

	v, m, c := app.BuildProbes(config.Config{}, store, chat)
	ctx := context.Background()
	assert.NoError(t, v(ctx))
	assert.EqualError(t, m(ctx), "invalid api key")
	assert.Error(t, c(ctx))
	store.AssertExpectations(t)
	chat.AssertExpectations(t)
}
