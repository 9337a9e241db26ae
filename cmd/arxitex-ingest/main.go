// Command arxitex-ingest discovers and ingests arXiv papers into a document
// artifact graph database: it runs the discovery workflow against the
// arXiv search API, processes the resulting queue through the extraction,
// enhancement, and dependency-inference pipeline, and backfills citation
// counts from an external scholarly index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"arxitex/internal/config"
)

var (
	cfgFile string
	dbPath  string
	verbose bool

	settings *config.Settings

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "arxitex-ingest",
	Short: "arxitex-ingest builds per-paper document artifact graphs from arXiv",
	Long: `arxitex-ingest discovers arXiv papers matching configured search queries,
extracts their theorem/lemma/definition structure, enhances it with an LLM-backed
definition bank, infers dependency edges between artifacts, and backfills citation
counts from an external scholarly index.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

		s, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbPath != "" {
			s.DBPath = dbPath
		}
		settings = s
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (yaml/json/toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the sqlite database (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(citationsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if rootCancel != nil {
		rootCancel()
	}
}
