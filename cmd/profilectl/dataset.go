package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/app"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/usecase"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Scrape trending skills for every job title into the dataset CSV",
	Long:  "Reads job titles from JOB_TITLES_PATH, scrapes trending skills for each one sequentially and writes the Job Title / Trending Skills CSV to DATASET_PATH.",
	Args:  cobra.NoArgs,
	RunE:  runDataset,
}

var (
	datasetTitles string
	datasetOut    string
)

func init() {
	datasetCmd.Flags().StringVar(&datasetTitles, "titles", "", "Job titles CSV (defaults to JOB_TITLES_PATH)")
	datasetCmd.Flags().StringVarP(&datasetOut, "out", "o", "", "Output CSV (defaults to DATASET_PATH)")
	rootCmd.AddCommand(datasetCmd)
}

func runDataset(cmd *cobra.Command, _ []string) error {
	cfg, done, err := setup("dataset")
	if err != nil {
		return err
	}
	defer done()
	if datasetTitles == "" {
		datasetTitles = cfg.JobTitlesPath
	}
	if datasetOut == "" {
		datasetOut = cfg.DatasetPath
	}

	titles, err := usecase.LoadJobTitles(datasetTitles)
	if errors.Is(err, domain.ErrDataSource) {
		slog.Error("job titles unreadable, writing an empty dataset", slog.String("path", datasetTitles), slog.Any("error", err))
		titles = nil
	} else if err != nil {
		return err
	}
	b := usecase.DatasetBuilder{Source: app.NewScraper(cfg), MaxKeywords: cfg.MaxKeywords, Pacing: cfg.ScrapeRequestPacing}
	records, stats, err := b.Build(cmd.Context(), titles)
	if err != nil {
		return err
	}
	if err := usecase.WriteDataset(datasetOut, records); err != nil {
		return err
	}
	return printJSON(cmd, stats)
}
