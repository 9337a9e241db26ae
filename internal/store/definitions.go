package store

import (
	"context"

	"arxitex/internal/defbank"
)

// replaceDefinitionsAndMappings deletes and reinserts every row derived
// from the definition bank for one paper: definitions, their aliases and
// compositional dependencies, the raw terms seen per artifact, and which
// of those terms resolve to a known definition. Delete-then-insert keeps a
// rerun idempotent and reconciles stale rows left by a partial prior write.
func replaceDefinitionsAndMappings(ctx context.Context, ex execer, paperID string, bank *defbank.Bank, artifactToTerms map[string][]string) error {
	deleteOrder := []string{
		"artifact_definition_requirements",
		"artifact_terms",
		"definition_dependencies",
		"definition_aliases",
		"definitions",
	}
	for _, table := range deleteOrder {
		if _, err := ex.ExecContext(ctx, "DELETE FROM "+table+" WHERE paper_id = ?", paperID); err != nil {
			return wrapDBErrorf(err, "clear %s for %s", table, paperID)
		}
	}

	defsByCanonical := bank.ToDict()

	for canonical, def := range defsByCanonical {
		var sourceArtifactID *string
		if def.SourceArtifactID != "" {
			sourceArtifactID = &def.SourceArtifactID
		}
		_, err := ex.ExecContext(ctx, `
			INSERT INTO definitions (paper_id, term_canonical, term_original, definition_text, is_synthesized, source_artifact_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, paperID, canonical, def.Term, def.DefinitionText, boolToInt(def.IsSynthesized), sourceArtifactID)
		if err != nil {
			return wrapDBErrorf(err, "insert definition %s", canonical)
		}

		for _, alias := range def.Aliases {
			if _, err := ex.ExecContext(ctx, `
				INSERT INTO definition_aliases (paper_id, term_canonical, alias) VALUES (?, ?, ?)
			`, paperID, canonical, alias); err != nil {
				return wrapDBErrorf(err, "insert alias %s for %s", alias, canonical)
			}
		}

		for _, dep := range def.Dependencies {
			dep := defbank.NormalizeTerm(dep)
			if _, ok := defsByCanonical[dep]; !ok {
				continue
			}
			if _, err := ex.ExecContext(ctx, `
				INSERT INTO definition_dependencies (paper_id, term_canonical, depends_on_term_canonical) VALUES (?, ?, ?)
			`, paperID, canonical, dep); err != nil {
				return wrapDBErrorf(err, "insert definition dependency %s->%s", canonical, dep)
			}
		}
	}

	for artifactID, rawTerms := range artifactToTerms {
		seen := make(map[string]bool)
		for _, raw := range rawTerms {
			canonical := defbank.NormalizeTerm(raw)
			if seen[canonical] {
				continue
			}
			seen[canonical] = true

			if _, err := ex.ExecContext(ctx, `
				INSERT INTO artifact_terms (paper_id, artifact_id, term_canonical, term_raw) VALUES (?, ?, ?, ?)
			`, paperID, artifactID, canonical, raw); err != nil {
				return wrapDBErrorf(err, "insert artifact term %s for %s", canonical, artifactID)
			}

			if _, ok := defsByCanonical[canonical]; ok {
				if _, err := ex.ExecContext(ctx, `
					INSERT INTO artifact_definition_requirements (paper_id, artifact_id, term_canonical) VALUES (?, ?, ?)
				`, paperID, artifactID, canonical); err != nil {
					return wrapDBErrorf(err, "insert definition requirement %s for %s", canonical, artifactID)
				}
			}
		}
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
