package texdialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLaTeX(t *testing.T) {
	assert.Equal(t, LaTeX, Detect(`\documentclass{article}\begin{document}Hi\end{document}`))
}

func TestDetectAMS(t *testing.T) {
	assert.Equal(t, AMSTeX, Detect(`\proclaim{Theorem 1.} Some text. \endproclaim`))
}

func TestDetectPlain(t *testing.T) {
	assert.Equal(t, PlainTeX, Detect(`\magnification=1200 text \bye`))
}

func TestDetectUnknown(t *testing.T) {
	assert.Equal(t, Unknown, Detect(""))
	assert.Equal(t, Unknown, Detect("just plain text with no markers"))
}

func TestNormalizeNoopForLaTeX(t *testing.T) {
	content := `\documentclass{article}\begin{theorem}X\end{theorem}`
	res := Normalize(content, LaTeX)
	assert.False(t, res.Changed)
	assert.Equal(t, content, res.Content)
}

func TestNormalizeProclaimDemo(t *testing.T) {
	content := `\proclaim{Theorem 1.}\label{thm:one} Statement here. \demo Proof. \enddemo \endproclaim`
	res := Normalize(content, AMSTeX)
	assert.True(t, res.Changed)
	assert.Contains(t, res.Content, `\begin{theorem}[Theorem 1.]`)
	assert.Contains(t, res.Content, `\label{thm:one}`)
	assert.Contains(t, res.Content, `\begin{proof}`)
	assert.Contains(t, res.Content, "Proof.")
	assert.Contains(t, res.Content, `\end{theorem}`)
}

func TestNormalizeLiftsNestedProof(t *testing.T) {
	content := `\proclaim{Lemma A}\label{lem:a} Body. \begin{proof} Inline proof body. \end{proof} \endproclaim`
	res := Normalize(content, AMSTeX)
	assert.True(t, res.Changed)
	// proof must be a sibling, not nested inside the statement env
	statementEnd := indexOf(res.Content, `\end{lemma}`)
	proofStart := indexOf(res.Content, `\begin{proof}`)
	assert.Greater(t, proofStart, statementEnd)
}

func TestNormalizeUnterminatedProclaim(t *testing.T) {
	content := `\proclaim{Corollary 2.} Unterminated body continues. \proclaim{Theorem 3.} Next block. \endproclaim`
	res := Normalize(content, AMSTeX)
	assert.True(t, res.Changed)
	assert.Contains(t, res.Content, `\begin{corollary}`)
	assert.Contains(t, res.Content, `\begin{theorem}`)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
