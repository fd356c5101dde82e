// Package qdrant provides a minimal Qdrant HTTP client and a vector backend on top of it.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/observability"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/retry"
)

// Distance is the Qdrant metric used for job skill collections. Euclid scores
// are distances, so lower means more similar.
const Distance = "Euclid"

// Client is a minimal Qdrant HTTP client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      retry.Policy

	mu      sync.Mutex
	ensured map[string]bool
}

var _ domain.VectorBackend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithRetry retries transport failures, 429 and 5xx responses under p.
func WithRetry(p retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// New constructs a Qdrant client with baseURL and optional apiKey.
// Without WithRetry every request is attempted once.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: observability.HTTPClient(10 * time.Second),
		retry:      retry.None(),
		ensured:    make(map[string]bool),
	}
	for _, o := range opts {
		o(c)
	}
	c.retry.Retryable = Retryable
	return c
}

// statusError is a non-2xx Qdrant response.
type statusError struct {
	Method, Path string
	Code         int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s status %d", e.Method, e.Path, e.Code)
}

// Retryable reports transport failures, 429 and 5xx responses as transient.
func Retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return errors.Is(err, domain.ErrNetwork) && !errors.Is(err, context.Canceled)
}

// point is the wire shape of a Qdrant point.
type point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload payload   `json:"payload"`
}

type payload struct {
	Content          string `json:"content"`
	TrendingKeywords string `json:"trending_keywords"`
}

type scoredPoint struct {
	ID      any     `json:"id"`
	Score   float64 `json:"score"`
	Payload payload `json:"payload"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var raw []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		raw = b
	}
	var status int
	err := c.retry.Named("qdrant "+method+" "+path).Do(ctx, func(ctx context.Context) error {
		var err error
		status, err = c.doOnce(ctx, method, path, raw, out)
		return err
	})
	return status, err
}

func (c *Client) doOnce(ctx context.Context, method, path string, raw []byte, out any) (int, error) {
	var rd io.Reader
	if raw != nil {
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, err
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &domain.NetworkError{Op: "qdrant " + method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, &statusError{Method: method, Path: path, Code: resp.StatusCode}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("qdrant decode: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// EnsureCollection creates the collection if it does not exist.
func (c *Client) EnsureCollection(ctx context.Context, name string, vectorSize int, distance string) error {
	status, err := c.do(ctx, http.MethodGet, "/collections/"+name, nil, nil)
	if err == nil {
		return nil
	}
	if status != http.StatusNotFound {
		return err
	}
	body := map[string]any{"vectors": map[string]any{"size": vectorSize, "distance": distance}}
	if _, err := c.do(ctx, http.MethodPut, "/collections/"+name, body, nil); err != nil {
		return fmt.Errorf("qdrant ensure create: %w", err)
	}
	return nil
}

// Upsert writes points, creating the collection sized to the first vector.
func (c *Client) Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	if err := c.ensureOnce(ctx, collection, len(points[0].Vector)); err != nil {
		return err
	}
	wire := make([]point, 0, len(points))
	for _, p := range points {
		wire = append(wire, point{
			ID:     p.ID,
			Vector: p.Vector,
			Payload: payload{
				Content:          p.Document.Content,
				TrendingKeywords: p.Document.Metadata.TrendingKeywords,
			},
		})
	}
	_, err := c.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", map[string]any{"points": wire}, nil)
	return err
}

func (c *Client) ensureOnce(ctx context.Context, collection string, size int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ensured[collection] {
		return nil
	}
	if err := c.EnsureCollection(ctx, collection, size, Distance); err != nil {
		return err
	}
	c.ensured[collection] = true
	return nil
}

// Search returns the k nearest points ordered by ascending distance.
// A collection that was never indexed has no hits.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredDocument, error) {
	body := map[string]any{"vector": vector, "limit": k, "with_payload": true}
	var out struct {
		Result []scoredPoint `json:"result"`
	}
	status, err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body, &out)
	if status == http.StatusNotFound {
		return []domain.ScoredDocument{}, nil
	}
	if err != nil {
		return nil, err
	}
	docs := make([]domain.ScoredDocument, 0, len(out.Result))
	for _, sp := range out.Result {
		docs = append(docs, domain.ScoredDocument{
			Document: domain.IndexedDocument{
				Content:  sp.Payload.Content,
				Metadata: domain.DocumentMetadata{TrendingKeywords: sp.Payload.TrendingKeywords},
			},
			Score: sp.Score,
		})
	}
	return docs, nil
}

// Drop deletes the collection. A missing collection is not an error.
func (c *Client) Drop(ctx context.Context, collection string) error {
	status, err := c.do(ctx, http.MethodDelete, "/collections/"+collection, nil, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	c.mu.Lock()
	delete(c.ensured, collection)
	c.mu.Unlock()
	return nil
}

// Ping lists collections to prove the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/collections", nil, nil)
	return err
}
