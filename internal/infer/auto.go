package infer

import (
	"fmt"
	"math"

	"arxitex/internal/types"
)

// estimateTokensForGlobal gives a rough token estimate for a global-mode
// prompt covering every node: content length plus a proof length capped at
// the configured budget, at a conservative 4 characters per token.
func estimateTokensForGlobal(nodes []*types.Artifact, cfg Config) int {
	var totalChars int
	for _, n := range nodes {
		totalChars += len(n.ContentTex)
		if cfg.GlobalIncludeProofs {
			proofLen := len(n.ProofTex)
			if proofLen > cfg.GlobalProofCharBudget {
				proofLen = cfg.GlobalProofCharBudget
			}
			totalChars += proofLen
		}
	}
	return int(math.Ceil(float64(totalChars) / 4))
}

// chooseModeAuto picks a concrete mode for auto and reports why, along with
// the token estimate that fed the decision.
func chooseModeAuto(nodes []*types.Artifact, cfg Config) (mode Mode, reason string, tokenEstimate int) {
	n := len(nodes)
	tokenEstimate = estimateTokensForGlobal(nodes, cfg)

	if n <= cfg.AutoMaxNodesGlobal && tokenEstimate <= cfg.AutoMaxTokensGlobal {
		if n > 15 {
			return ModeGlobal, fmt.Sprintf("auto: N=%d > 15 and tok_est~%d <= %d", n, tokenEstimate, cfg.AutoMaxTokensGlobal), tokenEstimate
		}
		return ModeHybrid, fmt.Sprintf("auto: N=%d <= %d and tok_est~%d <= %d", n, cfg.AutoMaxNodesGlobal, tokenEstimate, cfg.AutoMaxTokensGlobal), tokenEstimate
	}

	return ModePairwise, fmt.Sprintf("auto: fallback (N=%d, tok_est~%d) exceeds thresholds (N<=%d, tok<=%d)", n, tokenEstimate, cfg.AutoMaxNodesGlobal, cfg.AutoMaxTokensGlobal), tokenEstimate
}
