package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arxitex/internal/fetch"
	"arxitex/internal/infer"
	"arxitex/internal/oracle"
	"arxitex/internal/oraclecache"
	"arxitex/internal/store"
	"arxitex/internal/types"
	"arxitex/internal/workflow"
)

var processMaxItems int

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "process queued papers through extraction, enhancement, and inference",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(settings.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		cache := oraclecache.New(settings.CacheDir)
		oracleClient := oracle.New(settings.AnthropicAPIKey, settings.OracleModel, cache, settings.OracleMaxTries)

		fetchCfg := fetch.DefaultConfig()
		if settings.SourcesDir != "" {
			fetchCfg.CacheDir = settings.SourcesDir
		}
		fetcher := fetch.New(fetchCfg)

		cfg := workflow.ProcessingConfig{
			MaxItems:              processMaxItems,
			MaxConcurrentTasks:    settings.MaxConcurrentTasks,
			MaxConcurrentOracle:   settings.MaxConcurrentOracle,
			Mode:                  types.Mode(settings.Mode),
			InferMode:             infer.Mode(settings.InferMode),
			MaxPages:              settings.MaxPages,
			DisqualifyingKeywords: settings.DisqualifyingKeywords,
		}

		summary, err := workflow.ProcessQueue(rootCtx, st, fetcher, oracleClient, cfg)
		if err != nil {
			return fmt.Errorf("process queue: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}

		succeeded, skipped, failed := summary.Counts()
		fmt.Fprintf(os.Stderr, "processed: %d succeeded, %d skipped, %d failed\n", succeeded, skipped, failed)
		return nil
	},
}

func init() {
	processCmd.Flags().IntVar(&processMaxItems, "max-items", 20, "maximum number of queued papers to process in this run")
}
