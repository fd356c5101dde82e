// Package anthropic adapts the official Anthropic SDK to the chat port.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/observability"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/retry"
)

const provider = "anthropic"

// Config configures the Anthropic client.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Retry     retry.Policy
}

// Client implements domain.ChatModel.
type Client struct {
	client anthropic.Client
	cfg    Config
}

var _ domain.ChatModel = (*Client)(nil)

// New creates a client. SDK retries are disabled; cfg.Retry governs retries.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic api key is required", domain.ErrInvalidArgument)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	cfg.Retry.Retryable = Retryable
	return &Client{client: anthropic.NewClient(opts...), cfg: cfg}, nil
}

// Retryable reports rate limits, overload, server errors and transport failures as transient.
func Retryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return ai.RetryableStatus(apiErr.StatusCode)
	}
	return ai.RetryableTransport(err)
}

func statusOf(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Complete sends a single user message.
func (c *Client) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	var text string
	start := time.Now()
	err := c.cfg.Retry.Named("anthropic.Complete").Do(ctx, func(ctx context.Context) error {
		resp, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return err
		}
		var b strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if b.Len() == 0 {
			return errors.New("no text content in response")
		}
		text = b.String()
		return nil
	})
	observability.ObserveAIRequest(provider, "chat", start, err)
	if err != nil {
		return "", ai.WrapUpstream("anthropic.Complete", statusOf(err), err)
	}
	return text, nil
}

// Ping fetches the configured model's metadata.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.cfg.Model, anthropic.ModelGetParams{}); err != nil {
		return ai.WrapUpstream("anthropic.Ping", statusOf(err), err)
	}
	return nil
}
