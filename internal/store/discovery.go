package store

import (
	"context"
	"database/sql"
	"encoding/json"
)

// DiscoveredPaper is one queued, not-yet-processed search result.
type DiscoveredPaper struct {
	ArxivID  string
	Metadata map[string]any
}

// AddDiscoveredPapers inserts new papers into the discovery queue,
// silently skipping ids already present, and returns the number actually
// added.
func (s *Store) AddDiscoveredPapers(ctx context.Context, papers []DiscoveredPaper) (int, error) {
	if len(papers) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapDBError("begin add discovered papers tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	var added int
	for _, p := range papers {
		if p.ArxivID == "" {
			continue
		}
		metadata, err := json.Marshal(p.Metadata)
		if err != nil {
			return added, err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO discovered_papers (arxiv_id, metadata_json) VALUES (?, ?)
		`, p.ArxivID, string(metadata))
		if err != nil {
			return added, wrapDBErrorf(err, "insert discovered paper %s", p.ArxivID)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	return added, wrapDBError("commit add discovered papers tx", tx.Commit())
}

// PendingDiscoveredPapers returns the queued papers awaiting processing,
// ordered by arxiv id for deterministic dequeue batches: at most limit of
// them when limit > 0, otherwise all of them.
func (s *Store) PendingDiscoveredPapers(ctx context.Context, limit int) ([]DiscoveredPaper, error) {
	query := "SELECT arxiv_id, metadata_json FROM discovered_papers ORDER BY arxiv_id"
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, wrapDBError("list pending discovered papers", err)
	}
	defer rows.Close()

	var out []DiscoveredPaper
	for rows.Next() {
		var p DiscoveredPaper
		var metadataJSON string
		if err := rows.Scan(&p.ArxivID, &metadataJSON); err != nil {
			return nil, wrapDBError("scan discovered paper row", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &p.Metadata); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, wrapDBError("iterate discovered paper rows", rows.Err())
}

// RemoveDiscoveredPaper dequeues a single paper once it has been processed
// (successfully or terminally failed).
func (s *Store) RemoveDiscoveredPaper(ctx context.Context, arxivID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM discovered_papers WHERE arxiv_id = ?", arxivID)
	return wrapDBErrorf(err, "remove discovered paper %s", arxivID)
}

// DiscoveryCursor tracks one search query's backfill progress: the
// (year, month) bucket currently being searched, and the oldest
// "published" timestamp seen so far for the submittedDate upper bound.
type DiscoveryCursor struct {
	QueryKey           string
	BackfillYear       int
	BackfillMonth      int
	OldestPublishedUTC string
}

// GetDiscoveryCursor loads a query's cursor, or (nil, nil) if the query has
// never run before.
func (s *Store) GetDiscoveryCursor(ctx context.Context, queryKey string) (*DiscoveryCursor, error) {
	var c DiscoveryCursor
	var year, month sql.NullInt64
	var oldest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT query_key, backfill_year, backfill_month, oldest_published_utc
		FROM discovery_query_cursors WHERE query_key = ?
	`, queryKey).Scan(&c.QueryKey, &year, &month, &oldest)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBErrorf(err, "get discovery cursor %s", queryKey)
	}
	c.BackfillYear = int(year.Int64)
	c.BackfillMonth = int(month.Int64)
	c.OldestPublishedUTC = oldest.String
	return &c, nil
}

// PutDiscoveryCursor upserts a query's cursor state.
func (s *Store) PutDiscoveryCursor(ctx context.Context, c DiscoveryCursor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discovery_query_cursors (query_key, backfill_year, backfill_month, oldest_published_utc, updated_at_utc)
		VALUES (?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (query_key) DO UPDATE SET
			backfill_year = excluded.backfill_year,
			backfill_month = excluded.backfill_month,
			oldest_published_utc = excluded.oldest_published_utc,
			updated_at_utc = excluded.updated_at_utc
	`, c.QueryKey, c.BackfillYear, c.BackfillMonth, c.OldestPublishedUTC)
	return wrapDBErrorf(err, "put discovery cursor %s", c.QueryKey)
}
