// Package oracle implements the generative-oracle client of §6: a thin,
// cache-fronted wrapper over the Anthropic API exposing the seven typed
// prompt kinds the document enhancer (C5) and dependency inferencer (C6)
// use. The prompt wording itself is an external collaborator's concern;
// this package owns only the request/response contracts and the retry,
// caching, and metrics plumbing around them.
package oracle

import "arxitex/internal/types"

// Kind identifies one of the seven oracle prompt contracts of §6.
type Kind string

const (
	KindExtractDefinition        Kind = "extract_definition"
	KindExtractTermsGlobal       Kind = "extract_terms_global"
	KindExtractTermsSingle       Kind = "extract_terms_single"
	KindSynthesizeDefinition     Kind = "synthesize_definition"
	KindPairwiseDependency       Kind = "pairwise_dependency"
	KindGlobalDependency         Kind = "global_dependency"
	KindGlobalDependencyProposal Kind = "global_dependency_proposal"
)

// ExtractDefinitionResponse is the response for KindExtractDefinition.
type ExtractDefinitionResponse struct {
	DefinedTerm    string   `json:"defined_term"`
	DefinitionText string   `json:"definition_text"`
	Aliases        []string `json:"aliases"`
}

// ExtractTermsResponse is the response for KindExtractTermsGlobal and
// KindExtractTermsSingle.
type ExtractTermsResponse struct {
	Terms []string `json:"terms"`
}

// SynthesizeDefinitionResponse is the response for KindSynthesizeDefinition.
type SynthesizeDefinitionResponse struct {
	ContextWasSufficient bool    `json:"context_was_sufficient"`
	Definition           *string `json:"definition"`
}

// PairwiseDependencyResponse is the response for KindPairwiseDependency.
type PairwiseDependencyResponse struct {
	HasDependency  bool                  `json:"has_dependency"`
	DependencyType *types.DependencyType `json:"dependency_type,omitempty"`
	Justification  string                `json:"justification,omitempty"`
}

// DependencyEdge is one edge in a GlobalDependencyResponse.
type DependencyEdge struct {
	SourceID       string              `json:"source_id"`
	TargetID       string              `json:"target_id"`
	DependencyType types.DependencyType `json:"dependency_type"`
	Justification  string              `json:"justification,omitempty"`
}

// GlobalDependencyResponse is the response for KindGlobalDependency.
type GlobalDependencyResponse struct {
	Edges []DependencyEdge `json:"edges"`
}

// DependencyProposalEdge is one edge in a GlobalDependencyProposalResponse:
// a candidate pair without a verified dependency type or justification.
type DependencyProposalEdge struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// GlobalDependencyProposalResponse is the response for
// KindGlobalDependencyProposal.
type GlobalDependencyProposalResponse struct {
	Edges []DependencyProposalEdge `json:"edges"`
}
