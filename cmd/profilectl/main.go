// Command profilectl runs the offline pipeline: dataset scraping, indexing,
// batch generation, LLM evaluation and CSV combining.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/observability"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/vector"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/app"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "profilectl",
	Short:         "Offline pipeline for the AI profile upgrader",
	Long:          "profilectl builds the trending skills dataset, indexes it into the vector store, and generates and evaluates profiles in batch.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs a logger that also writes to
// LOG_DIR/profile_eval_logs. The returned func must be deferred.
func setup(command string) (config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	lg, closeLog, err := observability.SetupFileLogger(cfg, command)
	if err != nil {
		return config.Config{}, nil, err
	}
	prev := slog.Default()
	slog.SetDefault(lg)
	return cfg, func() {
		slog.SetDefault(prev)
		_ = closeLog()
	}, nil
}

// newRedisClient is replaced in tests to observe client cleanup.
var newRedisClient = app.NewRedisClient

// openStore opens the vector collection without a chat model, for commands
// that only index or retrieve.
func openStore(cfg config.Config) (*vector.Collection, func() error, error) {
	rdb, err := newRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeRedis := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	embedder, err := app.NewEmbedder(cfg, rdb)
	if err != nil {
		closeRedis()
		return nil, nil, err
	}
	backend, closeBackend, err := app.NewBackend(cfg)
	if err != nil {
		closeRedis()
		return nil, nil, err
	}
	closeAll := func() error {
		closeRedis()
		return closeBackend()
	}
	return vector.NewCollection(embedder, backend, cfg.CollectionName), closeAll, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
