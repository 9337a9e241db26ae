package infer

import (
	"context"

	"arxitex/internal/oracle"
	"arxitex/internal/types"
)

// inferGlobal issues one oracle call covering every internal artifact and
// adds the edges it returns, dropping self-loops, edges referencing an
// unknown artifact id, and edges with an invalid dependency type.
func (inf *Inferencer) inferGlobal(ctx context.Context, graph *types.DocumentGraph, internal []*types.Artifact) (added, dropped int, err error) {
	idToNode := nodeIndex(internal)

	var resp oracle.GlobalDependencyResponse
	if err := inf.oracleClient.Call(ctx, oracle.KindGlobalDependency, globalDependencyPrompt(internal, inf.cfg), &resp); err != nil {
		return 0, 0, err
	}

	for _, e := range resp.Edges {
		if e.SourceID == e.TargetID {
			dropped++
			continue
		}
		if _, ok := idToNode[e.SourceID]; !ok {
			dropped++
			continue
		}
		if _, ok := idToNode[e.TargetID]; !ok {
			dropped++
			continue
		}
		if !e.DependencyType.Valid() {
			dropped++
			continue
		}
		if graph.HasEdge(e.SourceID, e.TargetID, types.EdgeDependency) {
			continue
		}
		if addDependencyEdge(graph, e.SourceID, e.TargetID, e.DependencyType, e.Justification) {
			added++
		}
	}
	return added, dropped, nil
}
