package workflow

import (
	"context"

	"golang.org/x/sync/semaphore"

	"arxitex/internal/classify"
	"arxitex/internal/defbank"
	"arxitex/internal/enhance"
	"arxitex/internal/extract"
	"arxitex/internal/fetch"
	"arxitex/internal/infer"
	"arxitex/internal/oracle"
	"arxitex/internal/store"
	"arxitex/internal/texdialect"
	"arxitex/internal/types"
)

// oracleCaller is the subset of *oracle.Client the pipeline's enhance/infer
// stages depend on, narrowed so tests can supply a fake.
type oracleCaller interface {
	Call(ctx context.Context, kind oracle.Kind, prompt string, out interface{}) error
}

// pipeline runs the full per-paper ingestion: fetch source, build the base
// artifact graph, and, for modes that need it, enhance with definitions
// and infer dependency edges, persisting the result once at the end (or a
// failure state at whichever stage errors).
type pipeline struct {
	store       *store.Store
	fetcher     *fetch.Fetcher
	oracle      oracleCaller
	inferCfg    infer.Config
	mode        types.Mode
	inferMode   infer.Mode
	oracleSem   *semaphore.Weighted
}

// processOnePaper runs the pipeline for one paper, persisting a classified
// failure state if any stage errors.
func (p *pipeline) processOnePaper(ctx context.Context, paperID string, paper types.Paper) error {
	destDir, err := p.fetcher.Fetch(ctx, paperID)
	if err != nil {
		_ = p.store.RecordIngestionFailure(ctx, paper, p.mode, err)
		return err
	}

	combined, err := extract.CombineSources(destDir)
	if err != nil {
		wrapped := classify.Wrap(classify.ExtractorError, types.StageExtract, "combine sources failed", err)
		_ = p.store.RecordIngestionFailure(ctx, paper, p.mode, wrapped)
		return wrapped
	}

	dialect := texdialect.Detect(combined)
	norm := texdialect.Normalize(combined, dialect)

	graph, err := extract.BuildGraph(norm.Content, paperID, destDir)
	if err != nil {
		_ = p.store.RecordIngestionFailure(ctx, paper, p.mode, err)
		return err
	}

	result := store.ExtractionResult{
		Paper: paper,
		Mode:  p.mode,
		Stage: types.StageGraphBuild,
		Graph: graph,
	}

	if p.mode == types.ModeDefs || p.mode == types.ModeFull {
		bank := defbank.New()
		if err := p.oracleSem.Acquire(ctx, 1); err != nil {
			_ = p.store.RecordIngestionFailure(ctx, paper, p.mode, err)
			return err
		}
		enhanced, err := enhance.New(p.oracle, bank).EnhanceDocument(ctx, graph.Nodes, norm.Content, true)
		if err != nil {
			p.oracleSem.Release(1)
			_ = p.store.RecordIngestionFailure(ctx, paper, p.mode, err)
			return err
		}
		for _, n := range graph.Nodes {
			if defs, ok := enhanced.PrerequisiteDefs[n.ID]; ok {
				n.PrerequisiteDefs = defs
			}
		}

		inferencer := infer.New(p.oracle, p.inferCfg)
		if _, err := inferencer.InferDependencies(ctx, graph, enhanced.ArtifactToTerms, bank, p.inferMode); err != nil {
			p.oracleSem.Release(1)
			_ = p.store.RecordIngestionFailure(ctx, paper, p.mode, err)
			return err
		}
		p.oracleSem.Release(1)

		result.Bank = bank
		result.ArtifactToTerms = enhanced.ArtifactToTerms
		result.Stage = types.StageLLM
	}

	if err := p.store.PersistExtractionResult(ctx, result); err != nil {
		return err
	}

	return p.store.RemoveDiscoveredPaper(ctx, paperID)
}
