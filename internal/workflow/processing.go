package workflow

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"arxitex/internal/fetch"
	"arxitex/internal/oracle"
	"arxitex/internal/infer"
	"arxitex/internal/store"
	"arxitex/internal/types"
)

// ProcessingConfig configures one processing-workflow run.
type ProcessingConfig struct {
	MaxItems             int
	MaxConcurrentTasks    int64
	MaxConcurrentOracle   int64
	Mode                  types.Mode
	InferMode             infer.Mode
	MaxPages              int      // 0 disables the page-count heuristic
	DisqualifyingKeywords []string
}

func (c ProcessingConfig) withDefaults() ProcessingConfig {
	if c.MaxConcurrentTasks <= 0 {
		c.MaxConcurrentTasks = 4
	}
	if c.MaxConcurrentOracle <= 0 {
		c.MaxConcurrentOracle = 2
	}
	if c.Mode == "" {
		c.Mode = types.ModeFull
	}
	if c.InferMode == "" {
		c.InferMode = infer.ModeAuto
	}
	return c
}

// ProcessQueue dequeues up to cfg.MaxItems discovered papers and processes
// them within a bounded worker pool, wrapping the full per-paper pipeline
// and routing failures through the error classifier. It returns a summary
// report of successes, skips, and failures suitable for JSON export.
func ProcessQueue(ctx context.Context, st *store.Store, fetcher *fetch.Fetcher, oracleClient *oracle.Client, cfg ProcessingConfig) (*Summary, error) {
	cfg = cfg.withDefaults()

	queued, err := st.PendingDiscoveredPapers(ctx, cfg.MaxItems)
	if err != nil {
		return nil, err
	}

	summary := NewSummary()

	p := &pipeline{
		store:     st,
		fetcher:   fetcher,
		oracle:    oracleClient,
		inferCfg:  infer.DefaultConfig(),
		mode:      cfg.Mode,
		inferMode: cfg.InferMode,
		oracleSem: semaphore.NewWeighted(cfg.MaxConcurrentOracle),
	}

	taskSem := semaphore.NewWeighted(cfg.MaxConcurrentTasks)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, dp := range queued {
		if err := taskSem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(dp store.DiscoveredPaper) {
			defer wg.Done()
			defer taskSem.Release(1)

			paper := paperFromMetadata(dp.ArxivID, dp.Metadata)

			if skipped, ok := alreadySkipped(ctx, st, dp.ArxivID); ok {
				mu.Lock()
				summary.addSkipped(dp.ArxivID, skipped)
				mu.Unlock()
				return
			}

			if reason := preprocessSkipReason(paper.Title, paper.Comment, cfg.MaxPages, cfg.DisqualifyingKeywords); reason != "" {
				_ = st.SkipPaper(ctx, dp.ArxivID, reason)
				_ = st.RemoveDiscoveredPaper(ctx, dp.ArxivID)
				mu.Lock()
				summary.addSkipped(dp.ArxivID, reason)
				mu.Unlock()
				return
			}

			if err := p.processOnePaper(ctx, dp.ArxivID, paper); err != nil {
				mu.Lock()
				summary.addFailure(dp.ArxivID, err)
				mu.Unlock()
				return
			}

			mu.Lock()
			summary.addSuccess(dp.ArxivID)
			mu.Unlock()
		}(dp)
	}

	wg.Wait()
	return summary, nil
}

func alreadySkipped(ctx context.Context, st *store.Store, arxivID string) (string, bool) {
	skipped, err := st.IsSkipped(ctx, arxivID)
	if err != nil || !skipped {
		return "", false
	}
	return "previously skipped", true
}

func paperFromMetadata(arxivID string, metadata map[string]any) types.Paper {
	return types.Paper{
		ArxivID:         arxivID,
		Title:           stringField(metadata, "title"),
		Abstract:        stringField(metadata, "abstract"),
		Comment:         stringField(metadata, "comment"),
		PrimaryCategory: stringField(metadata, "primary_category"),
		AllCategories:   stringSliceField(metadata, "categories"),
		Authors:         stringSliceField(metadata, "authors"),
	}
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func stringSliceField(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
