package infer

import (
	"fmt"
	"strings"
	"text/template"

	"arxitex/internal/types"
)

var dependencyTypeOptions = strings.Join([]string{
	string(types.DependencyUsesResult),
	string(types.DependencyUsesDefinition),
	string(types.DependencyProves),
	string(types.DependencyProvidesExample),
	string(types.DependencyProvidesRemark),
	string(types.DependencyIsCorollaryOf),
	string(types.DependencyIsSpecialCaseOf),
	string(types.DependencyIsGeneralizationOf),
}, ", ")

var pairwiseTmpl = template.Must(template.New("pairwise_dependency").Parse(
	`You are an expert mathematician acting as a high-precision proof-checker. Determine whether the Source artifact below has a direct logical dependency on the Target artifact: does it use a result, definition, or example from the Target, prove a claim stated there, or stand in a corollary/special-case/generalization relationship to it?

Valid dependency types: {{.Options}}

Target ({{.Target.Type}}, label {{.Target.Label}}):
---
{{.Target.Content}}
---
proof: {{.Target.Proof}}
---

Source ({{.Source.Type}}, label {{.Source.Label}}):
---
{{.Source.Content}}
---
proof: {{.Source.Proof}}
---

If a dependency exists, set has_dependency to true, choose the single best dependency_type from the list above, and quote the words in the Source that justify it. If the shared terminology is coincidental, set has_dependency to false.
Respond as JSON matching {"has_dependency": bool, "dependency_type": string|null, "justification": string|null}.`))

type pairwiseArtifactView struct {
	Type    types.ArtifactType
	Label   string
	Content string
	Proof   string
}

func newPairwiseArtifactView(a *types.Artifact) pairwiseArtifactView {
	proof := a.ProofTex
	if proof == "" {
		proof = "No proof provided"
	}
	return pairwiseArtifactView{Type: a.Type, Label: a.Label, Content: a.ContentTex, Proof: proof}
}

func pairwiseDependencyPrompt(source, target *types.Artifact) string {
	var b strings.Builder
	_ = pairwiseTmpl.Execute(&b, struct {
		Options string
		Source  pairwiseArtifactView
		Target  pairwiseArtifactView
	}{dependencyTypeOptions, newPairwiseArtifactView(source), newPairwiseArtifactView(target)})
	return b.String()
}

// truncateProof renders a, possibly truncated, proof block for the global
// and proposal prompts, omitting it entirely when cfg says not to include
// proofs at all.
func truncateProof(proof string, cfg Config) string {
	if !cfg.GlobalIncludeProofs {
		return "[omitted]"
	}
	if proof == "" {
		return "No proof provided"
	}
	if len(proof) <= cfg.GlobalProofCharBudget {
		return proof
	}
	return proof[:cfg.GlobalProofCharBudget] + "\n[...truncated...]"
}

func renderArtifactChunks(nodes []*types.Artifact, cfg Config) string {
	chunks := make([]string, 0, len(nodes))
	for _, a := range nodes {
		label := a.Label
		if label == "" {
			label = "N/A"
		}
		chunks = append(chunks, fmt.Sprintf(
			"## Artifact\nid: %s\ntype: %s\nlabel: %s\nstatement:\n```latex\n%s\n```\nproof (may be truncated):\n```latex\n%s\n```",
			a.ID, a.Type, label, a.ContentTex, truncateProof(a.ProofTex, cfg)))
	}
	return strings.Join(chunks, "\n\n")
}

func globalDependencyPrompt(nodes []*types.Artifact, cfg Config) string {
	return fmt.Sprintf(`You are an expert mathematician inferring a dependency graph between the artifacts of a single paper.

A directed edge means the Source artifact depends on the Target artifact (Target is a prerequisite).

Valid dependency types: %s

Only create an edge if the dependency is clear from the text. Prefer a sparse graph; avoid redundant edges and self-loops.

%s

Respond as JSON matching {"edges": [{"source_id": string, "target_id": string, "dependency_type": string, "justification": string}]}.`,
		dependencyTypeOptions, renderArtifactChunks(nodes, cfg))
}

func globalDependencyProposalPrompt(nodes []*types.Artifact, cfg Config) string {
	return fmt.Sprintf(`You are an expert mathematician proposing likely prerequisite dependencies between the artifacts of a single paper. This is a proposal stage: prefer earlier artifacts as prerequisites, avoid redundant edges, do not propose self-loops, and do not justify your choices.

%s

Respond as JSON matching {"edges": [{"source_id": string, "target_id": string}]}.`,
		renderArtifactChunks(nodes, cfg))
}
