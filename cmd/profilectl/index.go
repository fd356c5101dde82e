package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the dataset CSV into the vector store",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

var (
	indexRebuild bool
	indexLimit   int
)

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "Drop the collection before indexing")
	indexCmd.Flags().IntVar(&indexLimit, "limit", -1, "Index at most this many rows (defaults to ROW_LIMIT, 0 means all)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, done, err := setup("index")
	if err != nil {
		return err
	}
	defer done()
	if indexLimit < 0 {
		indexLimit = cfg.RowLimit
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	if indexRebuild {
		if err := store.Reset(cmd.Context()); err != nil {
			return err
		}
		slog.Info("collection dropped", slog.String("collection", store.Name()))
	}
	rows, err := usecase.LoadKeywordRecords(cfg.DatasetPath, indexLimit)
	if errors.Is(err, domain.ErrDataSource) {
		slog.Error("dataset unreadable, nothing to index", slog.String("path", cfg.DatasetPath), slog.Any("error", err))
		rows = nil
	} else if err != nil {
		return err
	}
	stats, err := usecase.IndexBuilder{Store: store, BatchSize: cfg.IndexBatchSize}.Build(cmd.Context(), rows)
	if err != nil {
		return err
	}
	return printJSON(cmd, stats)
}
