// Package infer implements the dependency inferencer (C6): given the base
// artifact graph and, when available, the artifact-to-terms map and
// definition bank from the enhancer (C5), it adds oracle-verified
// dependency edges between internal artifacts in one of four modes.
package infer

// Mode selects the dependency inference strategy.
type Mode string

const (
	ModePairwise Mode = "pairwise"
	ModeGlobal   Mode = "global"
	ModeHybrid   Mode = "hybrid"
	ModeAuto     Mode = "auto"
)

func (m Mode) Valid() bool {
	switch m {
	case ModePairwise, ModeGlobal, ModeHybrid, ModeAuto:
		return true
	}
	return false
}

// Config holds the thresholds and caps governing mode selection and
// candidate generation, mirroring the original implementation's defaults.
type Config struct {
	// AutoMaxNodesGlobal and AutoMaxTokensGlobal bound when auto mode will
	// consider global or hybrid over pairwise.
	AutoMaxNodesGlobal  int
	AutoMaxTokensGlobal int

	// GlobalIncludeProofs and GlobalProofCharBudget control how much of
	// each artifact's proof is included in the global-mode prompt.
	GlobalIncludeProofs  bool
	GlobalProofCharBudget int

	// HybridTopKPerSource and HybridMaxTotalCandidates cap the candidate
	// edges a hybrid-mode proposal call can contribute before verification.
	HybridTopKPerSource      int
	HybridMaxTotalCandidates int

	// MaxTotalPairs bounds the number of pairwise verification calls any
	// single paper's pairwise-mode run can issue.
	MaxTotalPairs int
}

// DefaultConfig returns the inferencer's default thresholds.
func DefaultConfig() Config {
	return Config{
		AutoMaxNodesGlobal:       30,
		AutoMaxTokensGlobal:      12_000,
		GlobalIncludeProofs:      true,
		GlobalProofCharBudget:    1200,
		HybridTopKPerSource:      8,
		HybridMaxTotalCandidates: 250,
		MaxTotalPairs:            500,
	}
}
