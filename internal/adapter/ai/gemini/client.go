// Package gemini adapts Google's generative-ai-go SDK to the chat port.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/observability"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/retry"
)

const provider = "gemini"

// Config configures the Gemini client.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	Retry     retry.Policy
	// Endpoint overrides the API endpoint.
	Endpoint string
}

// Client implements domain.ChatModel.
type Client struct {
	client *genai.Client
	cfg    Config
}

var _ domain.ChatModel = (*Client)(nil)

// New creates a Gemini client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", domain.ErrInvalidArgument)
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("op=gemini.New: %w", err)
	}
	cfg.Retry.Retryable = Retryable
	return &Client{client: client, cfg: cfg}, nil
}

// Retryable reports rate limits, server errors and transport failures as transient.
func Retryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return ai.RetryableStatus(gerr.Code)
	}
	return ai.RetryableTransport(err)
}

func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

func (c *Client) model(name string, req domain.ChatRequest) *genai.GenerativeModel {
	m := c.client.GenerativeModel(name)
	m.SetTemperature(float32(req.Temperature))
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if maxTokens > 0 {
		m.SetMaxOutputTokens(int32(maxTokens)) //nolint:gosec // bounded by config validation
	}
	if req.System != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}
	if req.JSON {
		m.ResponseMIMEType = "application/json"
	}
	return m
}

// Complete generates content for one prompt.
func (c *Client) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	name := req.Model
	if name == "" {
		name = c.cfg.Model
	}
	m := c.model(name, req)
	var text string
	start := time.Now()
	err := c.cfg.Retry.Named("gemini.Complete").Do(ctx, func(ctx context.Context) error {
		resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
		if err != nil {
			return err
		}
		text, err = extractText(resp)
		return err
	})
	observability.ObserveAIRequest(provider, "chat", start, err)
	if err != nil {
		return "", ai.WrapUpstream("gemini.Complete", statusOf(err), err)
	}
	return text, nil
}

// Ping fetches model metadata.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.GenerativeModel(c.cfg.Model).Info(ctx); err != nil {
		return ai.WrapUpstream("gemini.Ping", statusOf(err), err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.client.Close() }

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no text parts in response")
	}
	return b.String(), nil
}
