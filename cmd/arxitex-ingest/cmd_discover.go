package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arxitex/internal/arxivapi"
	"arxitex/internal/store"
	"arxitex/internal/workflow"
)

var (
	discoverQuery      string
	discoverQueryKey   string
	discoverTargetSize int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "discover papers matching a search query and queue them for processing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if discoverQuery == "" {
			return fmt.Errorf("--query is required")
		}
		queryKey := discoverQueryKey
		if queryKey == "" {
			queryKey = discoverQuery
		}

		st, err := store.Open(settings.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		arxiv := arxivapi.New()

		stats, err := workflow.RunDiscovery(rootCtx, arxiv, st, queryKey, discoverQuery, discoverTargetSize)
		if err != nil {
			return fmt.Errorf("run discovery: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverQuery, "query", "", "arXiv search API query string")
	discoverCmd.Flags().StringVar(&discoverQueryKey, "query-key", "", "stable key identifying this query's backfill cursor (defaults to --query)")
	discoverCmd.Flags().IntVar(&discoverTargetSize, "target", 100, "number of new papers to discover in this run")
}
