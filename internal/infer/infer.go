package infer

import (
	"context"
	"fmt"

	"arxitex/internal/defbank"
	"arxitex/internal/oracle"
	"arxitex/internal/types"
)

// oracleCaller is the subset of *oracle.Client the inferencer depends on,
// narrowed so tests can supply a fake without standing up an HTTP server.
type oracleCaller interface {
	Call(ctx context.Context, kind oracle.Kind, prompt string, out interface{}) error
}

// Inferencer adds oracle-verified dependency edges to a document graph.
type Inferencer struct {
	oracleClient oracleCaller
	cfg          Config
}

// New constructs an Inferencer with the given configuration.
func New(oracleClient oracleCaller, cfg Config) *Inferencer {
	return &Inferencer{oracleClient: oracleClient, cfg: cfg}
}

// Result reports which mode actually ran and why, plus how many edges were
// added and how many candidates were dropped along the way.
type Result struct {
	Mode        Mode
	Reason      string
	EdgesAdded  int
	Dropped     int
}

// InferDependencies mutates graph in place, adding dependency edges between
// its internal (non-external) artifacts according to mode. artifactToTerms
// and bank may be nil; pairwise mode degrades to the full cartesian pair set
// when they are.
func (inf *Inferencer) InferDependencies(
	ctx context.Context,
	graph *types.DocumentGraph,
	artifactToTerms map[string][]string,
	bank *defbank.Bank,
	mode Mode,
) (Result, error) {
	internal := internalNodes(graph)
	if len(internal) < 2 {
		return Result{Mode: mode, Reason: "fewer than two internal artifacts"}, nil
	}

	selected := mode
	reason := ""
	if mode == ModeAuto {
		var tokenEstimate int
		selected, reason, tokenEstimate = chooseModeAuto(internal, inf.cfg)
		reason = fmt.Sprintf("%s (tok_est~%d)", reason, tokenEstimate)
	}

	switch selected {
	case ModePairwise:
		added, dropped, err := inf.inferPairwise(ctx, graph, internal, artifactToTerms, bank)
		return Result{Mode: selected, Reason: reason, EdgesAdded: added, Dropped: dropped}, err
	case ModeGlobal:
		added, dropped, err := inf.inferGlobal(ctx, graph, internal)
		return Result{Mode: selected, Reason: reason, EdgesAdded: added, Dropped: dropped}, err
	case ModeHybrid:
		added, dropped, err := inf.inferHybrid(ctx, graph, internal)
		return Result{Mode: selected, Reason: reason, EdgesAdded: added, Dropped: dropped}, err
	default:
		added, dropped, err := inf.inferPairwise(ctx, graph, internal, artifactToTerms, bank)
		return Result{Mode: ModePairwise, Reason: fmt.Sprintf("unknown mode %q, fell back to pairwise", selected), EdgesAdded: added, Dropped: dropped}, err
	}
}

func internalNodes(graph *types.DocumentGraph) []*types.Artifact {
	var out []*types.Artifact
	for _, n := range graph.Nodes {
		if !n.IsExternal {
			out = append(out, n)
		}
	}
	return out
}

func nodeIndex(nodes []*types.Artifact) map[string]*types.Artifact {
	m := make(map[string]*types.Artifact, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}

func addDependencyEdge(graph *types.DocumentGraph, sourceID, targetID string, depType types.DependencyType, justification string) bool {
	return graph.AddEdge(&types.Edge{
		SourceID:       sourceID,
		TargetID:       targetID,
		Kind:           types.EdgeDependency,
		DependencyType: depType,
		Justification:  justification,
	})
}

// orderByLine returns (source, target) with source positioned later in the
// document, matching the original's "order each pair as (later, earlier)".
func orderByLine(a, b *types.Artifact) (source, target *types.Artifact) {
	if a.Position.LineStart < b.Position.LineStart {
		return b, a
	}
	return a, b
}
