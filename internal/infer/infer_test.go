package infer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxitex/internal/defbank"
	"arxitex/internal/oracle"
	"arxitex/internal/types"
)

type fakeOracle struct {
	responses map[oracle.Kind][]string
	calls     map[oracle.Kind]int
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{responses: map[oracle.Kind][]string{}, calls: map[oracle.Kind]int{}}
}

func (f *fakeOracle) set(kind oracle.Kind, responses ...string) {
	f.responses[kind] = responses
}

func (f *fakeOracle) Call(ctx context.Context, kind oracle.Kind, prompt string, out interface{}) error {
	queue := f.responses[kind]
	idx := f.calls[kind]
	f.calls[kind]++
	if idx >= len(queue) {
		idx = len(queue) - 1
	}
	return json.Unmarshal([]byte(queue[idx]), out)
}

func newNode(id string, line int) *types.Artifact {
	return &types.Artifact{
		ID:          id,
		Type:        types.ArtifactTheorem,
		Label:       id,
		ContentTex:  "content for " + id,
		HasPosition: true,
		Position:    types.Position{LineStart: line, LineEnd: line},
	}
}

func TestInferDependenciesTooFewNodesIsNoop(t *testing.T) {
	fo := newFakeOracle()
	inf := New(fo, DefaultConfig())
	graph := types.NewDocumentGraph("x.tex")
	graph.AddNode(newNode("a", 1))

	result, err := inf.InferDependencies(context.Background(), graph, nil, nil, ModePairwise)
	require.NoError(t, err)
	assert.Equal(t, 0, result.EdgesAdded)
	assert.Empty(t, graph.Edges)
}

func TestInferPairwiseFallsBackToCartesianWithoutEnrichment(t *testing.T) {
	fo := newFakeOracle()
	fo.set(oracle.KindPairwiseDependency, `{"has_dependency":true,"dependency_type":"uses_result","justification":"quoted text"}`)
	inf := New(fo, DefaultConfig())

	graph := types.NewDocumentGraph("x.tex")
	graph.AddNode(newNode("thm-1", 10))
	graph.AddNode(newNode("thm-2", 20))

	result, err := inf.InferDependencies(context.Background(), graph, nil, nil, ModePairwise)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EdgesAdded)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, "thm-2", graph.Edges[0].SourceID)
	assert.Equal(t, "thm-1", graph.Edges[0].TargetID)
	assert.Equal(t, types.DependencyUsesResult, graph.Edges[0].DependencyType)
}

func TestInferPairwiseSkipsPairsWithExistingReferenceEdge(t *testing.T) {
	fo := newFakeOracle()
	fo.set(oracle.KindPairwiseDependency, `{"has_dependency":true,"dependency_type":"uses_result"}`)
	inf := New(fo, DefaultConfig())

	graph := types.NewDocumentGraph("x.tex")
	graph.AddNode(newNode("thm-1", 10))
	graph.AddNode(newNode("thm-2", 20))
	graph.AddEdge(&types.Edge{SourceID: "thm-2", TargetID: "thm-1", Kind: types.EdgeReference, ReferenceType: types.ReferenceInternal})

	result, err := inf.InferDependencies(context.Background(), graph, nil, nil, ModePairwise)
	require.NoError(t, err)
	assert.Equal(t, 0, result.EdgesAdded)
}

func TestInferPairwiseUsesConceptualFootprintWhenEnriched(t *testing.T) {
	fo := newFakeOracle()
	fo.set(oracle.KindPairwiseDependency, `{"has_dependency":false}`)
	inf := New(fo, DefaultConfig())

	graph := types.NewDocumentGraph("x.tex")
	graph.AddNode(newNode("a", 10))
	graph.AddNode(newNode("b", 20))

	bank := defbank.New()
	artifactToTerms := map[string][]string{
		"a": {"group"},
		"b": {"ring"},
	}

	result, err := inf.InferDependencies(context.Background(), graph, artifactToTerms, bank, ModePairwise)
	require.NoError(t, err)
	assert.Equal(t, 0, result.EdgesAdded, "disjoint footprints with no subword link should produce no candidates")
}

func TestInferPairwiseSubwordFootprintLink(t *testing.T) {
	fo := newFakeOracle()
	fo.set(oracle.KindPairwiseDependency, `{"has_dependency":true,"dependency_type":"uses_definition"}`)
	inf := New(fo, DefaultConfig())

	graph := types.NewDocumentGraph("x.tex")
	graph.AddNode(newNode("a", 10))
	graph.AddNode(newNode("b", 20))

	bank := defbank.New()
	artifactToTerms := map[string][]string{
		"a": {"union closed"},
		"b": {"approximate union closed"},
	}

	result, err := inf.InferDependencies(context.Background(), graph, artifactToTerms, bank, ModePairwise)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EdgesAdded)
}

func TestInferGlobalDropsSelfLoopsAndUnknownIDs(t *testing.T) {
	fo := newFakeOracle()
	fo.set(oracle.KindGlobalDependency, `{"edges":[
		{"source_id":"a","target_id":"a","dependency_type":"uses_result"},
		{"source_id":"a","target_id":"missing","dependency_type":"uses_result"},
		{"source_id":"a","target_id":"b","dependency_type":"proves","justification":"proves b"}
	]}`)
	inf := New(fo, DefaultConfig())

	graph := types.NewDocumentGraph("x.tex")
	graph.AddNode(newNode("a", 10))
	graph.AddNode(newNode("b", 20))

	result, err := inf.InferDependencies(context.Background(), graph, nil, nil, ModeGlobal)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EdgesAdded)
	assert.Equal(t, 2, result.Dropped)
}

func TestInferHybridCapsPerSourceCandidates(t *testing.T) {
	fo := newFakeOracle()
	fo.set(oracle.KindGlobalDependencyProposal, `{"edges":[{"source_id":"a","target_id":"b"},{"source_id":"a","target_id":"c"}]}`)
	fo.set(oracle.KindPairwiseDependency, `{"has_dependency":true,"dependency_type":"uses_result"}`)

	cfg := DefaultConfig()
	cfg.HybridTopKPerSource = 1
	inf := New(fo, cfg)

	graph := types.NewDocumentGraph("x.tex")
	graph.AddNode(newNode("a", 10))
	graph.AddNode(newNode("b", 20))
	graph.AddNode(newNode("c", 30))

	result, err := inf.InferDependencies(context.Background(), graph, nil, nil, ModeHybrid)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EdgesAdded, "top-k-per-source=1 should verify only one of the two proposed candidates")
}

func TestChooseModeAutoSmallDocPicksHybrid(t *testing.T) {
	cfg := DefaultConfig()
	var nodes []*types.Artifact
	for i := 0; i < 5; i++ {
		nodes = append(nodes, newNode("a", i))
	}
	mode, _, _ := chooseModeAuto(nodes, cfg)
	assert.Equal(t, ModeHybrid, mode)
}

func TestChooseModeAutoMediumDocPicksGlobal(t *testing.T) {
	cfg := DefaultConfig()
	var nodes []*types.Artifact
	for i := 0; i < 20; i++ {
		nodes = append(nodes, newNode("a", i))
	}
	mode, _, _ := chooseModeAuto(nodes, cfg)
	assert.Equal(t, ModeGlobal, mode)
}

func TestChooseModeAutoLargeDocPicksPairwise(t *testing.T) {
	cfg := DefaultConfig()
	var nodes []*types.Artifact
	for i := 0; i < 40; i++ {
		nodes = append(nodes, newNode("a", i))
	}
	mode, _, _ := chooseModeAuto(nodes, cfg)
	assert.Equal(t, ModePairwise, mode)
}

func TestIsSubwordOf(t *testing.T) {
	assert.True(t, isSubwordOf("union closed", "approximate union closed"))
	assert.False(t, isSubwordOf("approximate union closed", "union closed"))
	assert.False(t, isSubwordOf("group", "group"))
	assert.False(t, isSubwordOf("ring", "field"))
}
