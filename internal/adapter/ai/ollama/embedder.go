// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/ai"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/observability"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/retry"
)

const provider = "ollama"

// Config configures the embedder.
type Config struct {
	BaseURL    string
	Model      string
	Retry      retry.Policy
	HTTPClient *http.Client
}

// Embedder implements domain.Embedder over POST /api/embed.
type Embedder struct {
	cfg Config
	hc  *http.Client
}

var _ domain.Embedder = (*Embedder)(nil)

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ollama embed status %d: %s", e.Code, e.Body)
}

// New constructs an embedder; model defaults to nomic-embed-text.
func New(cfg Config) *Embedder {
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Retry.Retryable = func(err error) bool {
		if se, ok := err.(*statusError); ok {
			return ai.RetryableStatus(se.Code)
		}
		return ai.RetryableTransport(err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = observability.HTTPClient(60 * time.Second)
	}
	return &Embedder{cfg: cfg, hc: hc}
}

// Embed sends all texts in one batch request.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embedRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("op=ollama.Embed: %w", err)
	}
	var out [][]float32
	start := time.Now()
	err = e.cfg.Retry.Named("ollama.Embed").Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/api/embed", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := e.hc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &statusError{Code: resp.StatusCode, Body: string(snippet)}
		}
		var er embedResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return fmt.Errorf("decode embed response: %w", err)
		}
		if len(er.Embeddings) != len(texts) {
			return fmt.Errorf("embedding count %d != input count %d", len(er.Embeddings), len(texts))
		}
		out = er.Embeddings
		return nil
	})
	observability.ObserveAIRequest(provider, "embed", start, err)
	if err != nil {
		status := 0
		if se, ok := err.(*statusError); ok {
			status = se.Code
		}
		return nil, ai.WrapUpstream("ollama.Embed", status, err)
	}
	return out, nil
}
