// Package tokencount counts and trims prompt text with tiktoken-go.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/fairyhunter13/ai-profile-upgrader/pkg/textx"
)

// Counter caches encodings per model family and is safe for concurrent use.
type Counter struct {
	mu            sync.RWMutex
	encodingCache map[string]*tiktoken.Tiktoken
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

func (c *Counter) encoding(model string) (*tiktoken.Tiktoken, error) {
	name := normalizeModelName(model)

	c.mu.RLock()
	enc, ok := c.encodingCache[name]
	c.mu.RUnlock()
	if ok {
		return enc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		slog.Debug("falling back to cl100k_base encoding", slog.String("model", model), slog.Any("error", err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.encodingCache[name] = enc
	return enc, nil
}

// normalizeModelName maps provider model ids onto tiktoken model names.
// Non OpenAI models are approximated with the gpt-4 encoding.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	if strings.Contains(model, "gpt-3.5") {
		return "gpt-3.5-turbo"
	}
	return "gpt-4"
}

// CountTokens counts the tokens of text for model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.encoding(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// Truncate keeps at most max tokens of text. When no encoding is available it
// falls back to roughly four characters per token.
func (c *Counter) Truncate(text, model string, max int) string {
	if max <= 0 || text == "" {
		return text
	}
	enc, err := c.encoding(model)
	if err != nil {
		slog.Warn("token truncation falling back to characters", slog.String("model", model), slog.Any("error", err))
		return textx.Truncate(text, max*4)
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= max {
		return text
	}
	return enc.Decode(tokens[:max])
}
