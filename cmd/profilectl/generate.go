package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/app"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/config"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/usecase"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate profiles for randomly sampled user inputs",
	Long:  "Samples user inputs from the input pools, generates a profile for each and saves input/profile JSON pairs under INPUT_DIR and OUTPUT_DIR.",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

var (
	generateCount int
	generateSeed  uint64
	generatePools string
)

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", usecase.DefaultBatchSize, "Number of inputs to sample")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0, "Sampling seed (0 picks one from the clock)")
	generateCmd.Flags().StringVar(&generatePools, "pools", "", "YAML file overriding the built-in input pools")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, done, err := setup("generate")
	if err != nil {
		return err
	}
	defer done()
	if err := cfg.Validate(); err != nil {
		return err
	}

	pools, err := config.LoadInputPools(generatePools)
	if err != nil {
		return err
	}
	seed := generateSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	slog.Info("sampling inputs", slog.Int("count", generateCount), slog.Uint64("seed", seed))
	inputs := usecase.SampleInputs(pools, generateCount, seed)

	c, err := app.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	stats, err := usecase.BatchGenerator{Generator: c.Generator}.Run(cmd.Context(), usecase.PathsFor(cfg.InputDir, cfg.OutputDir), inputs)
	if err != nil {
		return err
	}
	return printJSON(cmd, stats)
}
