package main

import (
	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/app"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/usecase"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score every saved input/profile pair with the evaluation model",
	Args:  cobra.NoArgs,
	RunE:  runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, done, err := setup("evaluate")
	if err != nil {
		return err
	}
	defer done()
	if err := cfg.Validate(); err != nil {
		return err
	}

	c, err := app.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	stats, err := usecase.BatchEvaluator{Evaluator: c.Evaluator}.Run(cmd.Context(), usecase.PathsFor(cfg.InputDir, cfg.OutputDir))
	if err != nil {
		return err
	}
	return printJSON(cmd, stats)
}
