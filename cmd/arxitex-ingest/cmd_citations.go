package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arxitex/internal/arxivapi"
	"arxitex/internal/citation"
	"arxitex/internal/store"
)

var citationsMaxPapers int

var citationsCmd = &cobra.Command{
	Use:   "citations",
	Short: "backfill citation counts for stale papers from the scholarly index",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(settings.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		arxiv := arxivapi.New()
		index := citation.NewScholarlyIndexClient(settings.ArxivMailto)
		resolver := citation.New(st, arxiv, index, settings.ScholarlyQPS,
			citation.WithRefreshDays(settings.CitationRefreshDays))

		stats, err := resolver.BackfillCitations(rootCtx, citationsMaxPapers)
		if err != nil {
			return fmt.Errorf("backfill citations: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	citationsCmd.Flags().IntVar(&citationsMaxPapers, "max-papers", 50, "maximum number of stale papers to refresh in this run")
}
