package extract

import (
	"os"
	"path/filepath"
	"strings"

	"arxitex/internal/classify"
	"arxitex/internal/types"
)

// BuildGraph runs all phases of the C3 structural extractor over the
// combined LaTeX content of one paper and produces its base document graph:
// internal artifacts, their proofs, and their reference/citation edges.
// projectDir is consulted only for bibliography discovery (.bbl/.bib files);
// pass "" when none is available.
func BuildGraph(combinedContent, sourceFile, projectDir string) (*types.DocumentGraph, error) {
	content := stripComments(combinedContent)

	discovered := discoverEnvironments(content)
	parser := newEnvParser(content, discovered)
	nodes := parser.parse()

	detached := parser.findDetachedProofSpans()
	linkProofs(nodes, parser.labelToNodeID, parser.nodeOffsets, len(content), detached)

	bblContents, bibContents := loadBibliographyFiles(projectDir)
	bibMap := findAndParseBibliography(content, bblContents, bibContents)
	allLabels := indexAllLabels(content)

	refsByID := make(map[string][]parsedRef, len(nodes))
	for _, n := range nodes {
		refs := extractReferencesFromNode(n, bibMap)
		refsByID[n.ID] = refs
		n.References = toTypeReferences(refs)
	}

	edges, externalNodes := createGraphLinks(nodes, parser.labelToNodeID, allLabels, refsByID)

	graph := types.NewDocumentGraph(sourceFile)
	for _, n := range nodes {
		graph.AddNode(n)
	}
	for _, n := range externalNodes {
		graph.AddNode(n)
	}
	for _, e := range edges {
		graph.AddEdge(e)
	}

	if len(graph.Nodes) == 0 {
		return graph, classify.New(classify.GraphEmpty, types.StageGraphBuild, "no artifacts discovered in combined source")
	}
	return graph, nil
}

func toTypeReferences(refs []parsedRef) []types.Reference {
	out := make([]types.Reference, 0, len(refs))
	for _, r := range refs {
		out = append(out, types.Reference{
			TargetLabel: r.targetID,
			Type:        r.refType,
			Context:     r.context,
		})
	}
	return out
}

func loadBibliographyFiles(projectDir string) (bbl, bib []string) {
	if projectDir == "" {
		return nil, nil
	}
	_ = filepath.WalkDir(projectDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".bbl":
			if data, rerr := os.ReadFile(path); rerr == nil {
				bbl = append(bbl, string(data))
			}
		case ".bib":
			if data, rerr := os.ReadFile(path); rerr == nil {
				bib = append(bib, string(data))
			}
		}
		return nil
	})
	return bbl, bib
}

// createGraphLinks resolves every node's references into graph edges and,
// for external citations, newly minted external-reference artifact nodes.
// Self-edges are forbidden; at most one external node is created per cite
// key per paper.
func createGraphLinks(nodes []*types.Artifact, labelToNodeID map[string]string, allLabels map[string]bool, refsByID map[string][]parsedRef) ([]*types.Edge, []*types.Artifact) {
	var edges []*types.Edge
	var externalNodes []*types.Artifact
	createdExternal := make(map[string]string) // cite key -> external node id

	normalizedLabelMap := make(map[string]string)
	collisions := make(map[string]bool)
	for lbl, nid := range labelToNodeID {
		norm := normalizeLabel(lbl)
		if _, seen := normalizedLabelMap[norm]; seen {
			collisions[norm] = true
		} else {
			normalizedLabelMap[norm] = nid
		}
	}

	for _, source := range nodes {
		if source.IsExternal {
			continue
		}
		for _, ref := range refsByID[source.ID] {
			switch ref.refType {
			case types.ReferenceInternal:
				targetID, ok := labelToNodeID[ref.targetID]
				if !ok {
					norm := normalizeLabel(ref.targetID)
					if norm != "" && !collisions[norm] {
						targetID, ok = normalizedLabelMap[norm]
					}
				}
				if ok {
					if targetID != source.ID {
						edges = append(edges, &types.Edge{
							SourceID: source.ID, TargetID: targetID,
							Kind: types.EdgeReference, ReferenceType: types.ReferenceInternal,
							Context: ref.context,
						})
					}
					continue
				}
				if !allLabels[ref.targetID] {
					// Truly dangling: no edge is created and the
					// reference is dropped without being recorded.
					_ = ref
				}

			case types.ReferenceExternal:
				externalID, ok := createdExternal[ref.targetID]
				if !ok {
					content := ref.fullReference
					if content == "" {
						content = "External reference " + ref.targetID + " (no bibliography entry found in project)."
					}
					externalID = "external_" + ref.targetID
					externalNodes = append(externalNodes, &types.Artifact{
						ID: externalID, Label: ref.targetID,
						Type: types.ArtifactExternalReference, IsExternal: true,
						ContentTex: content,
					})
					createdExternal[ref.targetID] = externalID
				}
				edges = append(edges, &types.Edge{
					SourceID: source.ID, TargetID: externalID,
					Kind: types.EdgeReference, ReferenceType: types.ReferenceExternal,
					Context: ref.context,
				})
			}
		}
	}
	return edges, externalNodes
}
