// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev" validate:"oneof=dev test prod"`
	Port   int    `env:"PORT" envDefault:"8080" validate:"min=1,max=65535"`

	// Embeddings
	EmbeddingsProvider string `env:"EMBEDDINGS_PROVIDER" envDefault:"openai" validate:"oneof=openai ollama"`
	EmbeddingsModel    string `env:"EMBEDDINGS_MODEL" envDefault:"text-embedding-3-small" validate:"required"`
	OllamaBaseURL      string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434" validate:"omitempty,url"`
	EmbedCacheSize     int    `env:"EMBED_CACHE_SIZE" envDefault:"2048"`
	// RedisURL switches the query embedding cache from in-process to Redis.
	RedisURL      string        `env:"REDIS_URL"`
	EmbedCacheTTL time.Duration `env:"EMBED_CACHE_TTL" envDefault:"24h"`

	// Chat models
	LLMProvider     string  `env:"LLM_PROVIDER" envDefault:"openai" validate:"oneof=openai gemini anthropic"`
	ChatModel       string  `env:"CHAT_MODEL" envDefault:"gpt-3.5-turbo" validate:"required"`
	EvalModel       string  `env:"EVAL_MODEL"`
	ChatMaxTokens   int     `env:"CHAT_MAX_TOKENS" envDefault:"1024" validate:"min=64"`
	ChatTemperature float64 `env:"CHAT_TEMPERATURE" envDefault:"0.7" validate:"min=0,max=2"`
	OpenAIAPIKey    string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string  `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1" validate:"omitempty,url"`
	GeminiAPIKey    string  `env:"GEMINI_API_KEY"`
	AnthropicAPIKey string  `env:"ANTHROPIC_API_KEY"`
	// MaxBackgroundTokens caps the user background pasted into prompts.
	MaxBackgroundTokens int `env:"MAX_BACKGROUND_TOKENS" envDefault:"1024"`

	// Vector store
	VectorBackend    string `env:"VECTOR_BACKEND" envDefault:"local" validate:"oneof=local qdrant"`
	CollectionName   string `env:"COLLECTION_NAME" envDefault:"job_skills" validate:"required"`
	PersistDirectory string `env:"PERSIST_DIRECTORY" envDefault:"data/vector_store" validate:"required"`
	QdrantURL        string `env:"QDRANT_URL" envDefault:"http://localhost:6333" validate:"omitempty,url"`
	QdrantAPIKey     string `env:"QDRANT_API_KEY"`
	RetrievalTopK    int    `env:"RETRIEVAL_TOP_K" envDefault:"50" validate:"min=1,max=1000"`

	// Scraping
	ScrapeBaseURL       string        `env:"SCRAPE_BASE_URL" envDefault:"https://www.google.com/search" validate:"url"`
	ScrapeUserAgent     string        `env:"SCRAPE_USER_AGENT" envDefault:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36" validate:"required"`
	ScrapeTimeout       time.Duration `env:"SCRAPE_TIMEOUT" envDefault:"15s"`
	ScrapeMaxAttempts   int           `env:"SCRAPE_MAX_ATTEMPTS" envDefault:"3" validate:"min=1"`
	ScrapeRetryDelay    time.Duration `env:"SCRAPE_RETRY_DELAY" envDefault:"2s"`
	MaxKeywords         int           `env:"MAX_KEYWORDS" envDefault:"10" validate:"min=1"`
	ScrapeRequestPacing time.Duration `env:"SCRAPE_REQUEST_PACING" envDefault:"1s"`

	// Offline pipeline
	JobTitlesPath  string `env:"JOB_TITLES_PATH" envDefault:"data/job_titles.csv"`
	DatasetPath    string `env:"DATASET_PATH" envDefault:"data/job_skills.csv"`
	IndexBatchSize int    `env:"INDEX_BATCH_SIZE" envDefault:"100" validate:"min=1"`
	RowLimit       int    `env:"ROW_LIMIT" envDefault:"0" validate:"min=0"`
	InputDir       string `env:"INPUT_DIR" envDefault:"input" validate:"required"`
	OutputDir      string `env:"OUTPUT_DIR" envDefault:"output" validate:"required"`
	LogDir         string `env:"LOG_DIR" envDefault:"logs" validate:"required"`

	// Artifact upload (S3 compatible)
	ArtifactBucket string `env:"ARTIFACT_BUCKET"`
	ArtifactPrefix string `env:"ARTIFACT_PREFIX" envDefault:"evaluations/"`
	S3Endpoint     string `env:"S3_ENDPOINT" validate:"omitempty,url"`
	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	// Static credentials; when empty the default AWS credential chain applies.
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`

	// HTTP server
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30" validate:"min=1"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT" envDefault:"90s"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	// Observability
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ai-profile-upgrader"`

	// AI Backoff Configuration
	AIBackoffMaxAttempts     int           `env:"AI_BACKOFF_MAX_ATTEMPTS" envDefault:"4" validate:"min=1"`
	AIBackoffInitialInterval time.Duration `env:"AI_BACKOFF_INITIAL_INTERVAL" envDefault:"2s"`
	AIBackoffMaxInterval     time.Duration `env:"AI_BACKOFF_MAX_INTERVAL" envDefault:"20s"`
	AIBackoffMultiplier      float64       `env:"AI_BACKOFF_MULTIPLIER" envDefault:"1.5" validate:"min=1"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints and provider credentials.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("op=config.Validate: %w", err)
	}
	if missing := c.missingCredentials(); len(missing) > 0 {
		return fmt.Errorf("op=config.Validate: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) missingCredentials() []string {
	var missing []string
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	}
	if c.EmbeddingsProvider == "openai" && c.OpenAIAPIKey == "" && c.LLMProvider != "openai" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	return missing
}

// EvaluationModel names the judge model. Unset, it is gpt-4 for OpenAI and
// the chat model for every other provider.
func (c Config) EvaluationModel() string {
	switch {
	case c.EvalModel != "":
		return c.EvalModel
	case c.LLMProvider == "openai":
		return "gpt-4"
	}
	return c.ChatModel
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// ArtifactsEnabled reports whether combined CSVs can be uploaded.
func (c Config) ArtifactsEnabled() bool { return c.ArtifactBucket != "" }
