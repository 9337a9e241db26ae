package store

import (
	"context"
)

// LLMUsageRecord is one append-only accounting row for an oracle call.
type LLMUsageRecord struct {
	PaperID          string // empty if the call wasn't tied to a specific paper
	Mode             string
	Stage            string
	Provider         string
	Model            string
	PromptID         string
	Context          string
	Cached           bool
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// RecordLLMUsage appends one usage row. Never mutated or deduplicated:
// this table is a ledger, not current state.
func (s *Store) RecordLLMUsage(ctx context.Context, rec LLMUsageRecord) error {
	var paperID *string
	if rec.PaperID != "" {
		paperID = &rec.PaperID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_usage
			(paper_id, mode, stage, provider, model, prompt_id, context, cached, prompt_tokens, completion_tokens, total_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, paperID, rec.Mode, rec.Stage, rec.Provider, rec.Model, rec.PromptID, rec.Context,
		boolToInt(rec.Cached), rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens)
	return wrapDBError("record llm usage", err)
}

// TotalTokensForPaper sums total_tokens across every usage row for a paper,
// across all modes and stages.
func (s *Store) TotalTokensForPaper(ctx context.Context, paperID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_tokens), 0) FROM llm_usage WHERE paper_id = ?
	`, paperID).Scan(&total)
	return total, wrapDBErrorf(err, "sum tokens for %s", paperID)
}
