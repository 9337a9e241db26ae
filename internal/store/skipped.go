package store

import "context"

// SkipPaper records a paper rejected by a pre-processing heuristic (page
// count, title keyword) before it ever reached the pipeline. A paper
// already recorded keeps its original reason and timestamp.
func (s *Store) SkipPaper(ctx context.Context, arxivID, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO skipped_papers (arxiv_id, reason) VALUES (?, ?)
	`, arxivID, reason)
	return wrapDBErrorf(err, "skip paper %s", arxivID)
}

// IsSkipped reports whether a paper has already been recorded as skipped.
func (s *Store) IsSkipped(ctx context.Context, arxivID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM skipped_papers WHERE arxiv_id = ?
	`, arxivID).Scan(&count)
	if err != nil {
		return false, wrapDBErrorf(err, "check skipped %s", arxivID)
	}
	return count > 0, nil
}
