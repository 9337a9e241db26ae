package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxitex/internal/defbank"
	"arxitex/internal/types"
)

// TestReplaceDefinitionsAndMappingsCanonicalizesDependencies guards against
// a dependency term being dropped because it was stored as the definition's
// original (non-canonical) term rather than its canonical key, mirroring
// persistence.py's bank._normalize_term(dep) before the lookup and insert.
func TestReplaceDefinitionsAndMappingsCanonicalizesDependencies(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	paper := types.Paper{ArxivID: "2501.00002", Title: "A Paper"}
	require.NoError(t, UpsertPaper(ctx, s.db, paper))

	bank := defbank.New()
	bank.Register(&types.Definition{Term: "Union-Closed Family", DefinitionText: "..."})
	bank.Register(&types.Definition{
		Term:           "Frankl's Conjecture",
		DefinitionText: "...",
		Dependencies:   []string{"Union-Closed Family"},
	})

	graph := types.NewDocumentGraph("main.tex")
	result := ExtractionResult{
		Paper: paper,
		Mode:  types.ModeFull,
		Stage: types.StageLLM,
		Graph: graph,
		Bank:  bank,
	}
	require.NoError(t, s.PersistExtractionResult(ctx, result))

	var dependsOn string
	err := s.db.QueryRowContext(ctx, `
		SELECT depends_on_term_canonical FROM definition_dependencies
		WHERE paper_id = ? AND term_canonical = ?
	`, paper.ArxivID, defbank.NormalizeTerm("Frankl's Conjecture")).Scan(&dependsOn)
	require.NoError(t, err)
	assert.Equal(t, defbank.NormalizeTerm("Union-Closed Family"), dependsOn)
}
