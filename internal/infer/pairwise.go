package infer

import (
	"context"

	"arxitex/internal/defbank"
	"arxitex/internal/oracle"
	"arxitex/internal/types"
	"golang.org/x/sync/errgroup"
)

type candidatePair struct {
	source, target *types.Artifact
}

// inferPairwise builds conceptual footprints from artifactToTerms and bank
// (falling back to the full cartesian pair set when either is absent),
// filters out pairs already joined by a reference edge, and verifies each
// surviving candidate with one oracle call.
func (inf *Inferencer) inferPairwise(
	ctx context.Context,
	graph *types.DocumentGraph,
	internal []*types.Artifact,
	artifactToTerms map[string][]string,
	bank *defbank.Bank,
) (added, dropped int, err error) {
	candidates := inf.pairwiseCandidates(graph, internal, artifactToTerms, bank)
	if len(candidates) == 0 {
		return 0, 0, nil
	}
	if inf.cfg.MaxTotalPairs > 0 && len(candidates) > inf.cfg.MaxTotalPairs {
		dropped += len(candidates) - inf.cfg.MaxTotalPairs
		candidates = candidates[:inf.cfg.MaxTotalPairs]
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
		return added, dropped, err
	}

	for i, c := range candidates {
		v := verdicts[i]
		if v == nil || !v.HasDependency || v.DependencyType == nil {
			continue
		}
		justification := v.Justification
		if justification == "" {
			justification = "Inferred by LLM based on shared terminology."
		}
		if addDependencyEdge(graph, c.source.ID, c.target.ID, *v.DependencyType, justification) {
			added++
		}
	}
	return added, dropped, nil
}

func (inf *Inferencer) pairwiseCandidates(
	graph *types.DocumentGraph,
	internal []*types.Artifact,
	artifactToTerms map[string][]string,
	bank *defbank.Bank,
) []candidatePair {
	hasEnrichment := bank != nil && len(artifactToTerms) > 0

	var candidates []candidatePair
	if hasEnrichment {
		footprints := make(map[string]map[string]struct{}, len(internal))
		for _, a := range internal {
			footprints[a.ID] = buildConceptualFootprint(artifactToTerms[a.ID], bank)
		}

		for i := 0; i < len(internal); i++ {
			for j := i + 1; j < len(internal); j++ {
				n1, n2 := internal[i], internal[j]
				f1, f2 := footprints[n1.ID], footprints[n2.ID]

				linked := !footprintsDisjoint(f1, f2) || subwordLinkExists(f1, f2)
				if !linked {
					continue
				}

				source, target := orderByLine(n1, n2)
				if graph.HasEdge(source.ID, target.ID, types.EdgeDependency) ||
					graph.HasEdge(source.ID, target.ID, types.EdgeReference) ||
					graph.HasEdge(target.ID, source.ID, types.EdgeReference) {
					continue
				}
				candidates = append(candidates, candidatePair{source: source, target: target})
			}
		}
		return candidates
	}

	for i := 0; i < len(internal); i++ {
		for j := i + 1; j < len(internal); j++ {
			source, target := orderByLine(internal[i], internal[j])
			if graph.HasEdge(source.ID, target.ID, types.EdgeReference) ||
				graph.HasEdge(target.ID, source.ID, types.EdgeReference) {
				continue
			}
			candidates = append(candidates, candidatePair{source: source, target: target})
		}
	}
	return candidates
}
