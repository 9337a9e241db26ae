package infer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxitex/internal/oracle"
	"arxitex/internal/types"
)

func TestInferGlobalDropsInvalidDependencyType(t *testing.T) {
	fo := newFakeOracle()
	fo.set(oracle.KindGlobalDependency, `{"edges": [
		{"source_id": "a", "target_id": "b", "dependency_type": "not_a_real_type", "justification": "bogus"},
		{"source_id": "b", "target_id": "a", "dependency_type": "uses_result", "justification": "legit"}
	]}`)

	inf := New(fo, DefaultConfig())
	graph := types.NewDocumentGraph("x.tex")
	graph.AddNode(newNode("a", 1))
	graph.AddNode(newNode("b", 2))

	result, err := inf.InferDependencies(context.Background(), graph, nil, nil, ModeGlobal)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EdgesAdded)
	assert.Equal(t, 1, result.Dropped)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, types.DependencyUsesResult, graph.Edges[0].DependencyType)
}
