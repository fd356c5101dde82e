package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/app"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/usecase"
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Join inputs, profiles and evaluations into one CSV",
	Args:  cobra.NoArgs,
	RunE:  runCombine,
}

var combineUpload bool

func init() {
	combineCmd.Flags().BoolVar(&combineUpload, "upload", false, "Upload the CSV to ARTIFACT_BUCKET")
	rootCmd.AddCommand(combineCmd)
}

func runCombine(cmd *cobra.Command, _ []string) error {
	cfg, done, err := setup("combine")
	if err != nil {
		return err
	}
	defer done()

	stats, err := usecase.Combine(usecase.PathsFor(cfg.InputDir, cfg.OutputDir))
	if err != nil {
		return err
	}
	if combineUpload {
		store, err := app.NewArtifactStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("--upload requires ARTIFACT_BUCKET")
		}
		if err := usecase.PublishCombined(cmd.Context(), store, stats.Path); err != nil {
			return err
		}
	}
	return printJSON(cmd, stats)
}
