package infer

import (
	"context"

	"arxitex/internal/oracle"
	"arxitex/internal/types"
	"golang.org/x/sync/errgroup"
)

// inferHybrid first asks the oracle to propose candidate edges cheaply,
// caps them per-source and in total, then verifies each surviving
// candidate with the same pairwise call the pairwise mode uses.
func (inf *Inferencer) inferHybrid(ctx context.Context, graph *types.DocumentGraph, internal []*types.Artifact) (added, dropped int, err error) {
	idToNode := nodeIndex(internal)

	var proposal oracle.GlobalDependencyProposalResponse
	if err := inf.oracleClient.Call(ctx, oracle.KindGlobalDependencyProposal, globalDependencyProposalPrompt(internal, inf.cfg), &proposal); err != nil {
		return 0, 0, err
	}

	candidates := inf.capHybridCandidates(graph, idToNode, proposal.Edges)
	if len(candidates) == 0 {
		return 0, 0, nil
	}

	verdicts := make([]*oracle.PairwiseDependencyResponse, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			var resp oracle.PairwiseDependencyResponse
			if err := inf.oracleClient.Call(gctx, oracle.KindPairwiseDependency, pairwiseDependencyPrompt(c.source, c.target), &resp); err != nil {
				return nil
			}
			verdicts[i] = &resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return added, 0, err
	}

	for i, c := range candidates {
		v := verdicts[i]
		if v == nil || !v.HasDependency || v.DependencyType == nil {
			continue
		}
		justification := v.Justification
		if justification == "" {
			justification = "Inferred by LLM based on global proposal."
		}
		if addDependencyEdge(graph, c.source.ID, c.target.ID, *v.DependencyType, justification) {
			added++
		}
	}
	return added, 0, nil
}

// capHybridCandidates filters the proposer's raw edges down to the
// per-source top-k and overall cap, resolving each proposed (source_id,
// target_id) pair into artifact pointers in insertion order.
func (inf *Inferencer) capHybridCandidates(
	graph *types.DocumentGraph,
	idToNode map[string]*types.Artifact,
	proposed []oracle.DependencyProposalEdge,
) []candidatePair {
	perSourceCount := make(map[string]int)
	seen := make(map[[2]string]struct{})
	var candidates []candidatePair

	for _, pe := range proposed {
		if pe.SourceID == pe.TargetID {
			continue
		}
		source, ok := idToNode[pe.SourceID]
		if !ok {
			continue
		}
		target, ok := idToNode[pe.TargetID]
		if !ok {
			continue
		}
		if graph.HasEdge(pe.SourceID, pe.TargetID, types.EdgeDependency) {
			continue
		}
		if perSourceCount[pe.SourceID] >= inf.cfg.HybridTopKPerSource {
			continue
		}
		key := [2]string{pe.SourceID, pe.TargetID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		perSourceCount[pe.SourceID]++
		candidates = append(candidates, candidatePair{source: source, target: target})
		if len(candidates) >= inf.cfg.HybridMaxTotalCandidates {
			break
		}
	}
	return candidates
}
