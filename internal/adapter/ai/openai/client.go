// Package openai adapts the official openai-go SDK to the chat and embedding ports.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/observability"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/retry"
)

const provider = "openai"

// Config configures the OpenAI client.
type Config struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float64
	Retry          retry.Policy
	HTTPClient     *http.Client
}

// Client implements domain.ChatModel and domain.Embedder.
type Client struct {
	client openai.Client
	cfg    Config
}

var (
	_ domain.ChatModel = (*Client)(nil)
	_ domain.Embedder  = (*Client)(nil)
)

// New constructs a client. SDK retries are disabled; cfg.Retry governs retries.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key is required", domain.ErrInvalidArgument)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	cfg.Retry.Retryable = Retryable
	return &Client{client: openai.NewClient(opts...), cfg: cfg}, nil
}

// Retryable reports rate limits, server errors and transport failures as transient.
func Retryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return ai.RetryableStatus(apiErr.StatusCode)
	}
	return ai.RetryableTransport(err)
}

func statusOf(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// supportsJSONMode excludes the original gpt-4 snapshots, which reject response_format.
func supportsJSONMode(model string) bool {
	return model != "gpt-4" && !strings.HasPrefix(model, "gpt-4-0")
}

// Complete sends one chat completion and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.ChatModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	if req.JSON && supportsJSONMode(model) {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	var content string
	start := time.Now()
	err := c.cfg.Retry.Named("openai.Complete").Do(ctx, func(ctx context.Context) error {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("no choices in response")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	observability.ObserveAIRequest(provider, "chat", start, err)
	if err != nil {
		return "", ai.WrapUpstream("openai.Complete", statusOf(err), err)
	}
	return content, nil
}

// Embed embeds texts in one request; output order follows input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
	}
	out := make([][]float32, len(texts))
	start := time.Now()
	err := c.cfg.Retry.Named("openai.Embed").Do(ctx, func(ctx context.Context) error {
		resp, err := c.client.Embeddings.New(ctx, params)
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("embedding count %d != input count %d", len(resp.Data), len(texts))
		}
		for _, d := range resp.Data {
			if d.Index < 0 || int(d.Index) >= len(out) {
				return fmt.Errorf("embedding index %d out of range", d.Index)
			}
			vec := make([]float32, len(d.Embedding))
			for i, f := range d.Embedding {
				vec[i] = float32(f)
			}
			out[d.Index] = vec
		}
		return nil
	})
	observability.ObserveAIRequest(provider, "embed", start, err)
	if err != nil {
		return nil, ai.WrapUpstream("openai.Embed", statusOf(err), err)
	}
	return out, nil
}

// Ping fetches the chat model's metadata.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.cfg.ChatModel); err != nil {
		return ai.WrapUpstream("openai.Ping", statusOf(err), err)
	}
	return nil
}
