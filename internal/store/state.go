package store

import (
	"context"
	"database/sql"

	"arxitex/internal/types"
)

// markProcessing upserts the (paper_id, mode) state row to "processing",
// incrementing attempt_count. This is the only transition that increments
// it: markFailed leaves an existing counter unchanged, and a persist
// transaction that rolls back also rolls back this increment.
func markProcessing(ctx context.Context, ex execer, paperID string, mode types.Mode, stage types.Stage) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO paper_ingestion_state (paper_id, mode, stage, attempt_count, last_error, updated_at_utc)
		VALUES (?, ?, ?, 1, NULL, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (paper_id, mode) DO UPDATE SET
			stage = excluded.stage,
			attempt_count = paper_ingestion_state.attempt_count + 1,
			last_error = NULL,
			updated_at_utc = excluded.updated_at_utc
	`, paperID, string(mode), string(stage))
	return wrapDBErrorf(err, "mark processing %s/%s", paperID, mode)
}

func markComplete(ctx context.Context, ex execer, paperID string, mode types.Mode) error {
	_, err := ex.ExecContext(ctx, `
		UPDATE paper_ingestion_state
		SET stage = ?, last_error = NULL, updated_at_utc = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE paper_id = ? AND mode = ?
	`, string(types.StageComplete), paperID, string(mode))
	return wrapDBErrorf(err, "mark complete %s/%s", paperID, mode)
}

func markFailed(ctx context.Context, ex execer, paperID string, mode types.Mode, errText string) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO paper_ingestion_state (paper_id, mode, stage, attempt_count, last_error, updated_at_utc)
		VALUES (?, ?, ?, 1, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (paper_id, mode) DO UPDATE SET
			stage = excluded.stage,
			last_error = excluded.last_error,
			updated_at_utc = excluded.updated_at_utc
	`, paperID, string(mode), string(types.StageFailed), errText)
	return wrapDBErrorf(err, "mark failed %s/%s", paperID, mode)
}

// GetIngestionState loads the lifecycle row for one (paper, mode) pair.
func (s *Store) GetIngestionState(ctx context.Context, paperID string, mode types.Mode) (*types.IngestionState, error) {
	var st types.IngestionState
	var lastError sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT paper_id, mode, stage, attempt_count, last_error, updated_at_utc
		FROM paper_ingestion_state WHERE paper_id = ? AND mode = ?
	`, paperID, string(mode)).Scan(&st.PaperID, &st.Mode, &st.Stage, &st.AttemptCount, &lastError, &st.UpdatedAtUTC)
	if err != nil {
		return nil, wrapDBErrorf(err, "get state %s/%s", paperID, mode)
	}
	st.LastError = lastError.String
	return &st, nil
}

// ListByStage returns every ingestion state row currently at the given stage,
// e.g. for resuming papers stuck in "processing" after a crash.
func (s *Store) ListByStage(ctx context.Context, stage types.IngestionStage) ([]*types.IngestionState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT paper_id, mode, stage, attempt_count, last_error, updated_at_utc
		FROM paper_ingestion_state WHERE stage = ? ORDER BY updated_at_utc
	`, string(stage))
	if err != nil {
		return nil, wrapDBError("list by stage", err)
	}
	defer rows.Close()

	var out []*types.IngestionState
	for rows.Next() {
		var st types.IngestionState
		var lastError sql.NullString
		if err := rows.Scan(&st.PaperID, &st.Mode, &st.Stage, &st.AttemptCount, &lastError, &st.UpdatedAtUTC); err != nil {
			return nil, wrapDBError("scan state row", err)
		}
		st.LastError = lastError.String
		out = append(out, &st)
	}
	return out, wrapDBError("iterate state rows", rows.Err())
}
