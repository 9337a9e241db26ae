package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtifactTypeValid(t *testing.T) {
	assert.True(t, ArtifactTheorem.Valid())
	assert.True(t, ArtifactExternalReference.Valid())
	assert.False(t, ArtifactType("bogus").Valid())
}

func TestDependencyTypeValid(t *testing.T) {
	assert.True(t, DependencyUsesResult.Valid())
	assert.False(t, DependencyType("bogus").Valid())
}

func TestModeValid(t *testing.T) {
	assert.True(t, ModeRegex.Valid())
	assert.True(t, ModeDefs.Valid())
	assert.True(t, ModeFull.Valid())
	assert.False(t, Mode("bogus").Valid())
}

func TestEdgeKey(t *testing.T) {
	e := Edge{SourceID: "a", TargetID: "b", Kind: EdgeReference}
	assert.Equal(t, EdgeKey{Source: "a", Target: "b", Kind: EdgeReference}, e.Key())
	assert.Equal(t, "a->b:reference", e.Key().String())
}

func TestDocumentGraphAddNodeAndLookup(t *testing.T) {
	g := NewDocumentGraph("main.tex")
	a := &Artifact{ID: "theorem-1-abcdef", Type: ArtifactTheorem, Label: "thm:one"}
	g.AddNode(a)

	got, ok := g.NodeByID("theorem-1-abcdef")
	assert.True(t, ok)
	assert.Same(t, a, got)

	_, ok = g.NodeByID("missing")
	assert.False(t, ok)
}

func TestDocumentGraphAddEdgeDedup(t *testing.T) {
	g := NewDocumentGraph("main.tex")
	e1 := &Edge{SourceID: "a", TargetID: "b", Kind: EdgeReference, ReferenceType: ReferenceInternal}
	e2 := &Edge{SourceID: "a", TargetID: "b", Kind: EdgeReference, ReferenceType: ReferenceInternal}

	assert.True(t, g.AddEdge(e1))
	assert.False(t, g.AddEdge(e2), "duplicate (source, target, kind) must be rejected per P6")
	assert.Len(t, g.Edges, 1)
	assert.True(t, g.HasEdge("a", "b", EdgeReference))
}

func TestDocumentGraphAddEdgeAllowsDistinctKinds(t *testing.T) {
	g := NewDocumentGraph("main.tex")
	ref := &Edge{SourceID: "a", TargetID: "b", Kind: EdgeReference, ReferenceType: ReferenceInternal}
	dep := &Edge{SourceID: "a", TargetID: "b", Kind: EdgeDependency, DependencyType: DependencyUsesResult}

	assert.True(t, g.AddEdge(ref))
	assert.True(t, g.AddEdge(dep), "reference and dependency edges between the same pair are distinct")
	assert.Len(t, g.Edges, 2)
}

func TestDocumentGraphStats(t *testing.T) {
	g := NewDocumentGraph("main.tex")
	g.AddNode(&Artifact{ID: "a"})
	g.AddNode(&Artifact{ID: "b"})
	g.AddEdge(&Edge{SourceID: "a", TargetID: "b", Kind: EdgeReference})

	stats := g.Stats()
	assert.Equal(t, 2, stats.NodeCount)
	assert.Equal(t, 1, stats.EdgeCount)
}
