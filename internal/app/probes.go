package app

import (
	"context"

	httpserver "github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/config"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// BuildProbes returns the vector store, model and configuration probes used by
// the health endpoints.
func BuildProbes(cfg config.Config, store domain.VectorStore, chat domain.ChatModel) (vectorCheck, modelCheck, configCheck httpserver.Probe) {
	vectorCheck = func(ctx context.Context) error { return store.Ping(ctx) }
	modelCheck = func(ctx context.Context) error { return chat.Ping(ctx) }
	configCheck = func(context.Context) error { return cfg.Validate() }
	return vectorCheck, modelCheck, configCheck
}

// NewServer builds the HTTP server from wired components.
func NewServer(c *Components) *httpserver.Server {
	v, m, conf := BuildProbes(c.Cfg, c.Store, c.Chat)
	return httpserver.NewServer(c.Cfg, c.Generator, c.Retriever, v, m, conf)
}
