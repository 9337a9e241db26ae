package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxitex/internal/classify"
	"arxitex/internal/types"
)

func TestBuildGraphImmediateProof(t *testing.T) {
	content := `
\begin{theorem}\label{thm:one}
Every x is y.
\end{theorem}
\begin{proof}
By inspection.
\end{proof}
`
	g, err := BuildGraph(content, "main.tex", "")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, types.ArtifactTheorem, g.Nodes[0].Type)
	assert.Contains(t, g.Nodes[0].ProofTex, "By inspection.")
}

func TestBuildGraphNewtheoremDiscovery(t *testing.T) {
	content := `
\newtheorem{mainresult}{Main Theorem}
\begin{mainresult}\label{res:main}
Statement.
\end{mainresult}
`
	g, err := BuildGraph(content, "main.tex", "")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, types.ArtifactTheorem, g.Nodes[0].Type)
}

func TestBuildGraphInternalReference(t *testing.T) {
	content := `
\begin{lemma}\label{lem:a}
A helper fact.
\end{lemma}
\begin{theorem}\label{thm:b}
By \cref{lem:a}, the result follows.
\end{theorem}
`
	g, err := BuildGraph(content, "main.tex", "")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, types.ReferenceInternal, g.Edges[0].ReferenceType)
	assert.NotEqual(t, g.Edges[0].SourceID, g.Edges[0].TargetID)
}

func TestBuildGraphSelfEdgeForbidden(t *testing.T) {
	content := `
\begin{theorem}\label{thm:self}
As established above (\cref{thm:self}), the claim holds trivially.
\end{theorem}
`
	g, err := BuildGraph(content, "main.tex", "")
	require.NoError(t, err)
	assert.Empty(t, g.Edges, "a reference to one's own label must not create a self-edge")
}

func TestBuildGraphDanglingReferenceIgnored(t *testing.T) {
	content := `
\begin{theorem}\label{thm:only}
See \cref{eq:missing} for details.
\end{theorem}
`
	g, err := BuildGraph(content, "main.tex", "")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)
}

func TestBuildGraphEmbeddedBibliographyCitation(t *testing.T) {
	content := `
\begin{theorem}\label{thm:cited}
This extends the result of \cite{Rou01}.
\end{theorem}
\begin{thebibliography}{9}
\bibitem{Rou01} A. Rousseau, arXiv:0101.00001.
\end{thebibliography}
`
	g, err := BuildGraph(content, "main.tex", "")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, types.ReferenceExternal, g.Edges[0].ReferenceType)

	var external *types.Artifact
	for _, n := range g.Nodes {
		if n.IsExternal {
			external = n
		}
	}
	require.NotNil(t, external)
	assert.Equal(t, "Rou01", external.Label)
	assert.Contains(t, external.ContentTex, "Rousseau")
}

func TestBuildGraphManualBracketCitation(t *testing.T) {
	content := `
\begin{theorem}\label{thm:bracket}
This follows the approach of [Rou01, Bar99, Thm. 2].
\end{theorem}
\begin{thebibliography}{9}
\bibitem{Rou01} A. Rousseau.
\bibitem{Bar99} B. Barnes.
\end{thebibliography}
`
	g, err := BuildGraph(content, "main.tex", "")
	require.NoError(t, err)

	var externalLabels []string
	for _, n := range g.Nodes {
		if n.IsExternal {
			externalLabels = append(externalLabels, n.Label)
		}
	}
	assert.ElementsMatch(t, []string{"Rou01", "Bar99"}, externalLabels)
	assert.Len(t, g.Edges, 2)
}

func TestBuildGraphEmptyGraphClassified(t *testing.T) {
	_, err := BuildGraph("just prose, no environments at all", "main.tex", "")
	require.Error(t, err)
	ce := classify.Classify(err, types.StageGraphBuild)
	assert.Equal(t, classify.GraphEmpty, ce.Code)
}

func TestBuildGraphDetachedProofByProximity(t *testing.T) {
	content := `
\begin{theorem}\label{thm:a}
First statement.
\end{theorem}

Some discussion text in between.

\begin{proof}
Proof of the first statement, detached by prose.
\end{proof}
`
	g, err := BuildGraph(content, "main.tex", "")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Contains(t, g.Nodes[0].ProofTex, "detached by prose")
}

func TestBuildGraphDetachedProofBySemanticLink(t *testing.T) {
	content := `
\begin{theorem}\label{thm:first}
First statement.
\end{theorem}

\begin{lemma}\label{thm:second}
Second statement.
\end{lemma}

Some discussion text in between.

\begin{proof}[Proof of \cref{thm:first}]
This proves the first statement even though the second comes right before it.
\end{proof}
`
	g, err := BuildGraph(content, "main.tex", "")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)

	var first, second *types.Artifact
	for _, n := range g.Nodes {
		if n.Label == "thm:first" {
			first = n
		}
		if n.Label == "thm:second" {
			second = n
		}
	}
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Contains(t, first.ProofTex, "proves the first statement")
	assert.Empty(t, second.ProofTex)
}

func TestDiscoverEnvironmentsFirstMatchWins(t *testing.T) {
	content := `\newtheorem{foo}{Main Theorem}` + "\n" + `\newtheorem{foo}{Secondary Lemma}`
	got := discoverEnvironments(content)
	assert.Equal(t, "theorem", got["foo"])
}

func TestNormalizeLabelCollapsesSeparators(t *testing.T) {
	assert.Equal(t, "thm:one", normalizeLabel("THM--one"))
	assert.Equal(t, "thm:one", normalizeLabel("thm_one"))
}

func TestExtractLaTeXMacros(t *testing.T) {
	content := `
\documentclass{article}
\newcommand{\cF}{\mathcal{F}}
\DeclareMathOperator{\Hom}{Hom}
\newcommand{\vecx}[1]{\mathbf{#1}}
\begin{document}
\newcommand{\ignored}{should not be seen}
\end{document}
`
	macros := ExtractLaTeXMacros(content)
	assert.Equal(t, map[string]string{
		"cF":  `\mathcal{F}`,
		"Hom": "Hom",
	}, macros)
}
