package store

import (
	"context"
	"database/sql"

	"arxitex/internal/types"
)

// upsertArtifactsAndEdges writes the internal (non-external) artifacts of
// graph and every edge, internal or external-facing. External artifacts
// never get an artifacts row of their own; they only ever appear as an
// edge endpoint, the same way the original persistence layer treats them.
func upsertArtifactsAndEdges(ctx context.Context, ex execer, paperID string, graph *types.DocumentGraph) error {
	for _, a := range graph.Nodes {
		if a.IsExternal {
			continue
		}
		var lineStart, lineEnd, colStart, colEnd sql.NullInt64
		if a.HasPosition {
			lineStart = sql.NullInt64{Int64: int64(a.Position.LineStart), Valid: true}
			lineEnd = sql.NullInt64{Int64: int64(a.Position.LineEnd), Valid: true}
			colStart = sql.NullInt64{Int64: int64(a.Position.ColStart), Valid: true}
			colEnd = sql.NullInt64{Int64: int64(a.Position.ColEnd), Valid: true}
		}
		_, err := ex.ExecContext(ctx, `
			INSERT INTO artifacts (paper_id, artifact_id, artifact_type, label, content_tex, proof_tex, line_start, line_end, col_start, col_end)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (paper_id, artifact_id) DO UPDATE SET
				artifact_type = excluded.artifact_type,
				label = excluded.label,
				content_tex = excluded.content_tex,
				proof_tex = excluded.proof_tex,
				line_start = excluded.line_start,
				line_end = excluded.line_end,
				col_start = excluded.col_start,
				col_end = excluded.col_end
		`, paperID, a.ID, string(a.Type), a.Label, a.ContentTex, a.ProofTex, lineStart, lineEnd, colStart, colEnd)
		if err != nil {
			return wrapDBErrorf(err, "upsert artifact %s", a.ID)
		}
	}

	for _, e := range graph.Edges {
		edgeKind := types.EdgeReference
		var refType, depType, justification sql.NullString
		context_ := sql.NullString{}
		if e.Kind == types.EdgeDependency {
			edgeKind = types.EdgeDependency
			depType = sql.NullString{String: string(e.DependencyType), Valid: true}
			justification = sql.NullString{String: e.Justification, Valid: true}
		} else {
			refType = sql.NullString{String: string(e.ReferenceType), Valid: true}
			context_ = sql.NullString{String: e.Context, Valid: true}
		}

		_, err := ex.ExecContext(ctx, `
			INSERT OR REPLACE INTO artifact_edges
				(paper_id, edge_kind, source_artifact_id, target_artifact_id, reference_type, dependency_type, context, justification)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, paperID, string(edgeKind), e.SourceID, e.TargetID, refType, depType, context_, justification)
		if err != nil {
			return wrapDBErrorf(err, "upsert edge %s->%s", e.SourceID, e.TargetID)
		}
	}

	return nil
}

// LoadDocumentGraph reconstructs a paper's graph from its persisted
// artifacts and edges. When includePrerequisites is set, each artifact's
// PrerequisiteDefs is filled from artifact_definition_requirements joined
// against definitions.
func (s *Store) LoadDocumentGraph(ctx context.Context, paperID string, includePrerequisites bool) (*types.DocumentGraph, error) {
	graph := types.NewDocumentGraph(paperID)

	rows, err := s.db.QueryContext(ctx, `
		SELECT artifact_id, artifact_type, label, content_tex, proof_tex, line_start, line_end, col_start, col_end
		FROM artifacts WHERE paper_id = ? ORDER BY line_start, artifact_id
	`, paperID)
	if err != nil {
		return nil, wrapDBErrorf(err, "load artifacts %s", paperID)
	}
	for rows.Next() {
		var a types.Artifact
		var lineStart, lineEnd, colStart, colEnd sql.NullInt64
		if err := rows.Scan(&a.ID, &a.Type, &a.Label, &a.ContentTex, &a.ProofTex, &lineStart, &lineEnd, &colStart, &colEnd); err != nil {
			rows.Close()
			return nil, wrapDBError("scan artifact row", err)
		}
		if lineStart.Valid {
			a.HasPosition = true
			a.Position = types.Position{
				LineStart: int(lineStart.Int64),
				LineEnd:   int(lineEnd.Int64),
				ColStart:  int(colStart.Int64),
				ColEnd:    int(colEnd.Int64),
			}
		}
		graph.AddNode(&a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, wrapDBError("iterate artifact rows", err)
	}
	rows.Close()

	edgeRows, err := s.db.QueryContext(ctx, `
		SELECT edge_kind, source_artifact_id, target_artifact_id, reference_type, dependency_type, context, justification
		FROM artifact_edges WHERE paper_id = ?
	`, paperID)
	if err != nil {
		return nil, wrapDBErrorf(err, "load edges %s", paperID)
	}
	for edgeRows.Next() {
		var kind string
		var refType, depType, edgeContext, justification sql.NullString
		e := &types.Edge{}
		if err := edgeRows.Scan(&kind, &e.SourceID, &e.TargetID, &refType, &depType, &edgeContext, &justification); err != nil {
			edgeRows.Close()
			return nil, wrapDBError("scan edge row", err)
		}
		e.Kind = types.EdgeKind(kind)
		e.ReferenceType = types.ReferenceType(refType.String)
		e.DependencyType = types.DependencyType(depType.String)
		e.Context = edgeContext.String
		e.Justification = justification.String
		graph.AddEdge(e)
	}
	if err := edgeRows.Err(); err != nil {
		edgeRows.Close()
		return nil, wrapDBError("iterate edge rows", err)
	}
	edgeRows.Close()

	if includePrerequisites {
		if err := s.fillPrerequisiteDefs(ctx, paperID, graph); err != nil {
			return nil, err
		}
	}

	return graph, nil
}

func (s *Store) fillPrerequisiteDefs(ctx context.Context, paperID string, graph *types.DocumentGraph) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.artifact_id, d.term_original, d.definition_text
		FROM artifact_definition_requirements r
		JOIN definitions d ON d.paper_id = r.paper_id AND d.term_canonical = r.term_canonical
		WHERE r.paper_id = ?
		ORDER BY r.artifact_id, d.term_original
	`, paperID)
	if err != nil {
		return wrapDBErrorf(err, "load prerequisite defs %s", paperID)
	}
	defer rows.Close()

	for rows.Next() {
		var artifactID, term, text string
		if err := rows.Scan(&artifactID, &term, &text); err != nil {
			return wrapDBError("scan prerequisite row", err)
		}
		if a, ok := graph.NodeByID(artifactID); ok {
			a.PrerequisiteDefs = append(a.PrerequisiteDefs, types.TermDefinition{Term: term, DefinitionText: text})
		}
	}
	return wrapDBError("iterate prerequisite rows", rows.Err())
}
