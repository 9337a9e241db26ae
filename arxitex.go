// Package arxitex provides a minimal public API for extending
// arxitex-ingest with custom orchestration.
//
// Most extensions should query the sqlite database directly. This package
// exports only the essential types and functions needed for Go-based
// extensions that want to use arxitex's storage layer programmatically.
package arxitex

import (
	"arxitex/internal/store"
	"arxitex/internal/types"
)

// Core types for working with a paper's document artifact graph.
type (
	Paper          = types.Paper
	Artifact       = types.Artifact
	ArtifactType   = types.ArtifactType
	Edge           = types.Edge
	EdgeKind       = types.EdgeKind
	DocumentGraph  = types.DocumentGraph
	Definition     = types.Definition
	IngestionState = types.IngestionState
	CitationRecord = types.CitationRecord
)

// ArtifactType constants.
const (
	ArtifactTheorem     = types.ArtifactTheorem
	ArtifactLemma       = types.ArtifactLemma
	ArtifactProposition = types.ArtifactProposition
	ArtifactCorollary   = types.ArtifactCorollary
	ArtifactDefinition  = types.ArtifactDefinition
	ArtifactRemark      = types.ArtifactRemark
	ArtifactExample     = types.ArtifactExample
)

// Mode constants governing how much of the pipeline a paper runs through.
const (
	ModeRegex = types.ModeRegex
	ModeDefs  = types.ModeDefs
	ModeFull  = types.ModeFull
)

// EdgeKind constants.
const (
	EdgeReference  = types.EdgeReference
	EdgeDependency = types.EdgeDependency
)

// Store is the storage handle extensions use to query the artifact graph
// and ingestion state directly.
type Store = store.Store

// Open opens an arxitex sqlite database for programmatic access. Most
// extensions should use this to query a paper's document graph or
// ingestion state.
func Open(dbPath string) (*Store, error) {
	return store.Open(dbPath)
}
