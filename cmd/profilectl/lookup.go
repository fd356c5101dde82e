package main

import (
	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/app"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/usecase"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <profession>",
	Short: "Print the keywords retrieval returns for a profession",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetrieve,
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <profession>",
	Short: "Print the trending keywords scraped for a profession",
	Args:  cobra.ExactArgs(1),
	RunE:  runScrape,
}

var retrieveStrictness int

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveStrictness, "strictness", "s", 0, "Similarity strictness 0..100")
	rootCmd.AddCommand(retrieveCmd, scrapeCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup("retrieve")
	if err != nil {
		return err
	}
	defer done()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	r := usecase.Retriever{Store: store, Fallback: app.NewScraper(cfg), TopK: cfg.RetrievalTopK, MaxKeywords: cfg.MaxKeywords}
	res, err := r.Retrieve(cmd.Context(), args[0], usecase.RelevanceThreshold(retrieveStrictness))
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup("scrape")
	if err != nil {
		return err
	}
	defer done()

	keywords, err := app.NewScraper(cfg).FetchKeywords(cmd.Context(), args[0], cfg.MaxKeywords)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]any{"profession": args[0], "keywords": keywords})
}
