package store

import (
	"context"
	"fmt"

	"arxitex/internal/defbank"
	"arxitex/internal/types"
)

// ExtractionResult bundles everything one ingestion run produced for a
// single paper, ready to be written atomically.
type ExtractionResult struct {
	Paper           types.Paper
	Mode            types.Mode
	Stage           types.Stage
	Graph           *types.DocumentGraph
	Bank            *defbank.Bank          // nil unless Mode is defs or full
	ArtifactToTerms map[string][]string    // raw terms seen per artifact, nil unless Mode is defs or full
}

// PersistExtractionResult writes one paper's ingestion output atomically:
// paper metadata, the (paper,mode) state transition to processing, the
// artifact graph, and (for defs/full modes) the definition bank. On any
// failure the whole write rolls back and a best-effort second transaction
// records the paper and marks the state failed with the error text, then
// the original error is returned.
func (s *Store) PersistExtractionResult(ctx context.Context, r ExtractionResult) error {
	if err := s.persistExtractionTx(ctx, r); err != nil {
		if failErr := s.recordFailure(ctx, r.Paper, r.Mode, err); failErr != nil {
			return fmt.Errorf("%w (also failed to record failure: %v)", err, failErr)
		}
		return err
	}
	return nil
}

func (s *Store) persistExtractionTx(ctx context.Context, r ExtractionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("begin persist tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := UpsertPaper(ctx, tx, r.Paper); err != nil {
		return err
	}
	if err := markProcessing(ctx, tx, r.Paper.ArxivID, r.Mode, r.Stage); err != nil {
		return err
	}
	if err := upsertArtifactsAndEdges(ctx, tx, r.Paper.ArxivID, r.Graph); err != nil {
		return err
	}
	if r.Mode == types.ModeDefs || r.Mode == types.ModeFull {
		if r.Bank != nil {
			if err := replaceDefinitionsAndMappings(ctx, tx, r.Paper.ArxivID, r.Bank, r.ArtifactToTerms); err != nil {
				return err
			}
		}
	}
	if err := markComplete(ctx, tx, r.Paper.ArxivID, r.Mode); err != nil {
		return err
	}

	return wrapDBError("commit persist tx", tx.Commit())
}

// RecordIngestionFailure marks a (paper, mode) pair failed outside of a
// full PersistExtractionResult call, for pipeline stages that fail before
// there is a graph to persist (source fetch, extraction).
func (s *Store) RecordIngestionFailure(ctx context.Context, paper types.Paper, mode types.Mode, cause error) error {
	return s.recordFailure(ctx, paper, mode, cause)
}

// recordFailure is best-effort: a second, independent transaction that
// upserts the paper (in case it was never written) and marks the ingestion
// state failed with the triggering error's text.
func (s *Store) recordFailure(ctx context.Context, paper types.Paper, mode types.Mode, cause error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("begin failure tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := UpsertPaper(ctx, tx, paper); err != nil {
		return err
	}
	if err := markFailed(ctx, tx, paper.ArxivID, mode, cause.Error()); err != nil {
		return err
	}
	return wrapDBError("commit failure tx", tx.Commit())
}
