// Package enhance implements the document enhancer (C5): it ensures every
// mathematical term used by an artifact has a definition in the shared
// definition bank, synthesizing one from surrounding context when the paper
// never states it explicitly, then assembles each artifact's ordered list
// of prerequisite definitions.
//
// Enhancement runs in three phases, in the order the original
// implementation used them to avoid races: explicit definitions are
// registered sequentially (a later definition may itself use an earlier
// one), term discovery and synthesis run concurrently once the explicit
// definitions are in place, and the final per-artifact assembly runs
// concurrently once every term the document needs is in the bank.
package enhance

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"arxitex/internal/defbank"
	"arxitex/internal/oracle"
	"arxitex/internal/types"
)

// oracleCaller is the subset of *oracle.Client the enhancer depends on,
// narrowed so tests can supply a fake without standing up an HTTP server.
type oracleCaller interface {
	Call(ctx context.Context, kind oracle.Kind, prompt string, out interface{}) error
}

// Enhancer enhances a document's artifacts using a generative oracle and a
// shared definition bank.
type Enhancer struct {
	oracleClient oracleCaller
	bank         *defbank.Bank

	// ValidateSynthesis, when set, rejects a synthesized definition whose
	// sentences don't all appear verbatim (modulo whitespace) in the
	// context the oracle was given, instead of registering it outright.
	ValidateSynthesis bool

	synthesisMu sync.Mutex
}

// New constructs an Enhancer over a shared definition bank.
func New(oracleClient oracleCaller, bank *defbank.Bank) *Enhancer {
	return &Enhancer{oracleClient: oracleClient, bank: bank}
}

// Result is the output of EnhanceDocument.
type Result struct {
	// ArtifactToTerms maps each artifact ID to the terms found within it.
	ArtifactToTerms map[string][]string
	// PrerequisiteDefs maps each artifact ID to its ordered prerequisite
	// definitions, ready to assign to types.Artifact.PrerequisiteDefs.
	PrerequisiteDefs map[string][]types.TermDefinition
}

// EnhanceDocument runs all three phases over artifacts and returns the
// enhancement result. latexContent is the full combined source, used to
// locate the context preceding a term's first use when synthesizing.
func (e *Enhancer) EnhanceDocument(ctx context.Context, artifacts []*types.Artifact, latexContent string, useGlobalExtraction bool) (*Result, error) {
	sorted := make([]*types.Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position.LineStart < sorted[j].Position.LineStart
	})

	allArtifactsByID := make(map[string]*types.Artifact, len(sorted))
	for _, a := range sorted {
		allArtifactsByID[a.ID] = a
	}
	startPositions := calculateStartPositions(sorted, latexContent)
	endPositions := calculateEndPositions(sorted, latexContent)

	if err := e.populateBankFromDefinitions(ctx, sorted); err != nil {
		return nil, err
	}

	artifactToTerms, termToFirstArtifact, err := e.discoverAndSynthesizeTerms(
		ctx, sorted, startPositions, endPositions, latexContent, useGlobalExtraction)
	if err != nil {
		return nil, err
	}

	e.bank.MergeRedundancies()
	e.bank.ResolveInternalDependencies()

	prereqs, err := e.enhanceAllArtifacts(ctx, sorted, artifactToTerms, termToFirstArtifact, allArtifactsByID)
	if err != nil {
		return nil, err
	}

	return &Result{ArtifactToTerms: artifactToTerms, PrerequisiteDefs: prereqs}, nil
}

// populateBankFromDefinitions sequentially registers every DEFINITION
// artifact's explicit definition. Sequential order matters: a later
// definition's text may itself reference an earlier one.
func (e *Enhancer) populateBankFromDefinitions(ctx context.Context, artifacts []*types.Artifact) error {
	for _, a := range artifacts {
		if a.Type != types.ArtifactDefinition {
			continue
		}
		var resp oracle.ExtractDefinitionResponse
		if err := e.oracleClient.Call(ctx, oracle.KindExtractDefinition, extractDefinitionPrompt(a.ContentTex), &resp); err != nil {
			continue
		}
		if resp.DefinedTerm == "" || resp.DefinitionText == "" {
			continue
		}
		e.bank.Register(&types.Definition{
			Term:             resp.DefinedTerm,
			DefinitionText:   resp.DefinitionText,
			Aliases:          resp.Aliases,
			SourceArtifactID: a.ID,
		})
	}
	return nil
}

// discoverAndSynthesizeTerms finds every term the document uses (globally
// in one oracle call, or per artifact) and synthesizes a definition for
// whichever of them the bank doesn't already cover.
func (e *Enhancer) discoverAndSynthesizeTerms(
	ctx context.Context,
	artifacts []*types.Artifact,
	startPositions, endPositions map[string]int,
	latexContent string,
	useGlobalExtraction bool,
) (map[string][]string, map[string]string, error) {
	var artifactToTerms map[string][]string
	var termToFirstArtifact map[string]string
	var allTerms []string
	var err error

	if useGlobalExtraction {
		allTerms, artifactToTerms, termToFirstArtifact, err = e.extractTermsGlobally(ctx, artifacts)
	} else {
		allTerms, artifactToTerms, termToFirstArtifact, err = e.extractTermsPerArtifact(ctx, artifacts)
	}
	if err != nil {
		return nil, nil, err
	}

	existingDefs := e.bank.FindMany(allTerms)
	existingCanonical := make(map[string]struct{}, len(existingDefs))
	for _, d := range existingDefs {
		existingCanonical[defbank.NormalizeTerm(d.Term)] = struct{}{}
	}

	var missing []string
	for _, term := range allTerms {
		if _, ok := existingCanonical[defbank.NormalizeTerm(term)]; !ok {
			missing = append(missing, term)
		}
	}
	if len(missing) == 0 {
		return artifactToTerms, termToFirstArtifact, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, term := range missing {
		sourceArtifactID, ok := termToFirstArtifact[term]
		if !ok {
			continue
		}
		term, sourceArtifactID := term, sourceArtifactID
		g.Go(func() error {
			e.synthesizeSingleTerm(gctx, term, sourceArtifactID, startPositions, endPositions, latexContent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return artifactToTerms, termToFirstArtifact, nil
}

func (e *Enhancer) extractTermsGlobally(ctx context.Context, artifacts []*types.Artifact) ([]string, map[string][]string, map[string]string, error) {
	contents := make([]string, len(artifacts))
	for i, a := range artifacts {
		contents[i] = a.ContentTex
	}
	fullDocument := sanitizeForOracle(strings.Join(contents, "\n\n---\n---\n\n"))

	var resp oracle.ExtractTermsResponse
	if err := e.oracleClient.Call(ctx, oracle.KindExtractTermsGlobal, extractTermsPrompt(fullDocument), &resp); err != nil {
		return nil, nil, nil, err
	}
	sanitized := FilterAndSanitizeExtractedTerms(resp.Terms)

	artifactToTerms := make(map[string][]string, len(artifacts))
	termToFirstArtifact := make(map[string]string, len(sanitized))

	canonicalContentByArtifact := make(map[string]string, len(artifacts))
	for _, a := range artifacts {
		canonicalContentByArtifact[a.ID] = defbank.CanonicalSearchString(a.ContentTex)
	}

	for _, a := range artifacts {
		canonicalContent := " " + canonicalContentByArtifact[a.ID] + " "
		var found []string
		for _, term := range sanitized {
			canonicalTerm := defbank.CanonicalSearchString(term)
			if canonicalTerm == "" {
				continue
			}
			if strings.Contains(canonicalContent, " "+canonicalTerm+" ") {
				found = append(found, term)
				if _, ok := termToFirstArtifact[term]; !ok {
					termToFirstArtifact[term] = a.ID
				}
			}
		}
		sort.Strings(found)
		artifactToTerms[a.ID] = found
	}

	return sanitized, artifactToTerms, termToFirstArtifact, nil
}

func (e *Enhancer) extractTermsPerArtifact(ctx context.Context, artifacts []*types.Artifact) ([]string, map[string][]string, map[string]string, error) {
	results := make([][]string, len(artifacts))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range artifacts {
		i, a := i, a
		g.Go(func() error {
			var resp oracle.ExtractTermsResponse
			clean := sanitizeForOracle(a.ContentTex)
			if err := e.oracleClient.Call(gctx, oracle.KindExtractTermsSingle, extractTermsPrompt(clean), &resp); err != nil {
				results[i] = nil
				return nil
			}
			results[i] = FilterAndSanitizeExtractedTerms(resp.Terms)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	allTermsSet := make(map[string]struct{})
	artifactToTerms := make(map[string][]string, len(artifacts))
	termToFirstArtifact := make(map[string]string)
	for i, a := range artifacts {
		terms := results[i]
		artifactToTerms[a.ID] = terms
		for _, t := range terms {
			allTermsSet[t] = struct{}{}
			if _, ok := termToFirstArtifact[t]; !ok {
				termToFirstArtifact[t] = a.ID
			}
		}
	}

	allTerms := make([]string, 0, len(allTermsSet))
	for t := range allTermsSet {
		allTerms = append(allTerms, t)
	}
	sort.Strings(allTerms)

	return allTerms, artifactToTerms, termToFirstArtifact, nil
}

// synthesizeSingleTerm defines term from the paragraph preceding its first
// use plus the content of the artifact where it was found.
//
// The whole operation, including the oracle call, runs under synthesisMu:
// two goroutines racing to synthesize the same term must not both register
// a definition, and the cheapest way to guarantee that is to serialize
// synthesis entirely rather than add a second, narrower lock around
// registration only.
func (e *Enhancer) synthesizeSingleTerm(
	ctx context.Context,
	term, sourceArtifactID string,
	startPositions, endPositions map[string]int,
	latexContent string,
) {
	e.synthesisMu.Lock()
	defer e.synthesisMu.Unlock()

	if _, ok := e.bank.Find(term); ok {
		return
	}

	docBodyStart := strings.Index(latexContent, `\begin{document}`)
	if docBodyStart == -1 {
		docBodyStart = 0
	} else {
		docBodyStart += len(`\begin{document}`)
	}

	startPos, okStart := startPositions[sourceArtifactID]
	endPos, okEnd := endPositions[sourceArtifactID]
	if !okStart || !okEnd {
		return
	}

	searchStart := max(docBodyStart, 0)
	searchEnd := max(searchStart, startPos)
	if searchEnd > len(latexContent) {
		searchEnd = len(latexContent)
	}
	if searchStart > searchEnd {
		searchStart = searchEnd
	}
	textBefore := latexContent[searchStart:searchEnd]
	precedingContext := FindContextAroundFirstOccurrence(term, textBefore)

	if endPos > len(latexContent) {
		endPos = len(latexContent)
	}
	if startPos > endPos {
		startPos = endPos
	}
	artifactContent := strings.TrimSpace(latexContent[startPos:endPos])

	var contextParts []string
	if precedingContext != "" {
		contextParts = append(contextParts, "CONTEXT PRECEDING THE TERM'S FIRST USE:\n---\n"+precedingContext+"\n---")
	}
	contextParts = append(contextParts, "THE ARTIFACT WHERE THE TERM WAS FOUND:\n---\n"+artifactContent+"\n---")
	combinedContext := strings.Join(contextParts, "\n\n")

	baseDefinition, _ := e.bank.FindBestBaseDefinition(term)

	var resp oracle.SynthesizeDefinitionResponse
	if err := e.oracleClient.Call(ctx, oracle.KindSynthesizeDefinition, synthesizeDefinitionPrompt(term, combinedContext, baseDefinition), &resp); err != nil {
		return
	}
	if !resp.ContextWasSufficient || resp.Definition == nil || *resp.Definition == "" {
		return
	}

	if e.ValidateSynthesis && !validateDefinitionInContext(*resp.Definition, combinedContext) {
		return
	}

	var deps []string
	if baseDefinition != nil {
		deps = []string{baseDefinition.Term}
	}
	e.bank.Register(&types.Definition{
		Term:             term,
		DefinitionText:   *resp.Definition,
		SourceArtifactID: "synthesized_from_context_for_" + sourceArtifactID,
		Dependencies:     deps,
		IsSynthesized:    true,
	})
}

// enhanceAllArtifacts concurrently builds each artifact's ordered
// prerequisite-definitions list from the terms discovered within it.
func (e *Enhancer) enhanceAllArtifacts(
	ctx context.Context,
	artifacts []*types.Artifact,
	artifactToTerms map[string][]string,
	termToFirstArtifact map[string]string,
	allArtifactsByID map[string]*types.Artifact,
) (map[string][]types.TermDefinition, error) {
	results := make([][]types.TermDefinition, len(artifacts))

	g, _ := errgroup.WithContext(ctx)
	for i, a := range artifacts {
		i, a := i, a
		g.Go(func() error {
			terms := artifactToTerms[a.ID]
			definitionsNeeded := make(map[string]*types.Definition, len(terms))
			for _, term := range terms {
				if def, ok := e.bank.Find(term); ok {
					definitionsNeeded[term] = def
				}
			}
			results[i] = createEnhancedContent(definitionsNeeded, termToFirstArtifact, allArtifactsByID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]types.TermDefinition, len(artifacts))
	for i, a := range artifacts {
		out[a.ID] = results[i]
	}
	return out, nil
}

// createEnhancedContent orders a set of prerequisite definitions by the
// line on which each term first appeared in the document; terms with no
// recorded source artifact (definitions pulled from elsewhere in the bank)
// sort first.
func createEnhancedContent(
	definitions map[string]*types.Definition,
	termToFirstArtifact map[string]string,
	allArtifactsByID map[string]*types.Artifact,
) []types.TermDefinition {
	if len(definitions) == 0 {
		return nil
	}

	terms := make([]string, 0, len(definitions))
	for t := range definitions {
		terms = append(terms, t)
	}

	sortKey := func(term string) int {
		sourceID, ok := termToFirstArtifact[term]
		if !ok {
			return 0
		}
		source, ok := allArtifactsByID[sourceID]
		if !ok || !source.HasPosition {
			return 0
		}
		return source.Position.LineStart
	}

	sort.SliceStable(terms, func(i, j int) bool {
		return sortKey(terms[i]) < sortKey(terms[j])
	})

	out := make([]types.TermDefinition, 0, len(terms))
	for _, t := range terms {
		out = append(out, types.TermDefinition{Term: t, DefinitionText: definitions[t].DefinitionText})
	}
	return out
}
