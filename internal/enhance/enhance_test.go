package enhance

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxitex/internal/defbank"
	"arxitex/internal/oracle"
	"arxitex/internal/types"
)

// fakeOracle serves canned JSON responses keyed by Kind, recording call
// counts so tests can assert on concurrency and caching behavior.
type fakeOracle struct {
	responses map[oracle.Kind][]string // one entry popped per call, last one repeats
	calls     map[oracle.Kind]int
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{responses: map[oracle.Kind][]string{}, calls: map[oracle.Kind]int{}}
}

func (f *fakeOracle) set(kind oracle.Kind, responses ...string) {
	f.responses[kind] = responses
}

func (f *fakeOracle) Call(ctx context.Context, kind oracle.Kind, prompt string, out interface{}) error {
	queue := f.responses[kind]
	idx := f.calls[kind]
	f.calls[kind]++
	if idx >= len(queue) {
		idx = len(queue) - 1
	}
	return json.Unmarshal([]byte(queue[idx]), out)
}

func newArtifact(id string, typ types.ArtifactType, content string, line int) *types.Artifact {
	return &types.Artifact{
		ID:          id,
		Type:        typ,
		ContentTex:  content,
		HasPosition: true,
		Position:    types.Position{LineStart: line, LineEnd: line, ColStart: 1, ColEnd: len(content) + 1},
	}
}

func TestEnhanceDocumentRegistersExplicitDefinition(t *testing.T) {
	fo := newFakeOracle()
	fo.set(oracle.KindExtractDefinition, `{"defined_term":"group","definition_text":"A set with an associative binary operation and an identity.","aliases":[]}`)
	fo.set(oracle.KindExtractTermsGlobal, `{"terms":[]}`)

	bank := defbank.New()
	e := New(fo, bank)

	latex := "\\begin{document}\n\\begin{definition}\nA group is a set with an associative binary operation.\n\\end{definition}\n\\end{document}\n"
	artifacts := []*types.Artifact{
		newArtifact("def-1", types.ArtifactDefinition, "A group is a set with an associative binary operation.", 3),
	}

	result, err := e.EnhanceDocument(context.Background(), artifacts, latex, true)
	require.NoError(t, err)
	require.NotNil(t, result)

	def, ok := bank.Find("group")
	require.True(t, ok)
	assert.Equal(t, "A set with an associative binary operation and an identity.", def.DefinitionText)
}

func TestEnhanceDocumentSynthesizesMissingTerm(t *testing.T) {
	fo := newFakeOracle()
	fo.set(oracle.KindExtractTermsGlobal, `{"terms":["ring"]}`)
	fo.set(oracle.KindSynthesizeDefinition, `{"context_was_sufficient":true,"definition":"A ring is a set with two binary operations."}`)

	bank := defbank.New()
	e := New(fo, bank)

	latex := "\\begin{document}\nA ring is introduced here.\n\n\\begin{theorem}\nEvery ring has a zero element.\n\\end{theorem}\n\\end{document}\n"
	artifacts := []*types.Artifact{
		newArtifact("thm-1", types.ArtifactTheorem, "Every ring has a zero element.", 5),
	}

	result, err := e.EnhanceDocument(context.Background(), artifacts, latex, true)
	require.NoError(t, err)

	def, ok := bank.Find("ring")
	require.True(t, ok)
	assert.True(t, def.IsSynthesized)
	assert.Contains(t, result.ArtifactToTerms["thm-1"], "ring")
	require.Len(t, result.PrerequisiteDefs["thm-1"], 1)
	assert.Equal(t, "ring", result.PrerequisiteDefs["thm-1"][0].Term)
}

func TestEnhanceDocumentSkipsSynthesisWhenContextInsufficient(t *testing.T) {
	fo := newFakeOracle()
	fo.set(oracle.KindExtractTermsGlobal, `{"terms":["manifold"]}`)
	fo.set(oracle.KindSynthesizeDefinition, `{"context_was_sufficient":false,"definition":null}`)

	bank := defbank.New()
	e := New(fo, bank)

	latex := "\\begin{document}\n\\begin{theorem}\nThe manifold is compact.\n\\end{theorem}\n\\end{document}\n"
	artifacts := []*types.Artifact{
		newArtifact("thm-1", types.ArtifactTheorem, "The manifold is compact.", 3),
	}

	_, err := e.EnhanceDocument(context.Background(), artifacts, latex, true)
	require.NoError(t, err)

	_, ok := bank.Find("manifold")
	assert.False(t, ok, "insufficient-context synthesis must not register a definition")
}

func TestFilterAndSanitizeExtractedTerms(t *testing.T) {
	in := []string{"  group.", "ring,", "group", "\\\\phi", "", "   "}
	got := FilterAndSanitizeExtractedTerms(in)
	assert.Equal(t, []string{"\\phi", "group", "ring"}, got)
}

func TestFindContextAroundFirstOccurrenceReturnsParagraph(t *testing.T) {
	text := "Some unrelated text.\n\nA group $G$ is a set with an operation.\n\nMore unrelated text."
	got := FindContextAroundFirstOccurrence("G", text)
	assert.Contains(t, got, "A group $G$ is a set with an operation.")
}

func TestValidateDefinitionInContext(t *testing.T) {
	context := "A group is a set with an associative operation. It has an identity element."
	assert.True(t, validateDefinitionInContext("A group is a set with an associative operation.", context))
	assert.False(t, validateDefinitionInContext("A group is a Lie algebra.", context))
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("A group is a set. It has an identity! Does it have inverses? Yes.")
	assert.Equal(t, []string{"A group is a set.", "It has an identity!", "Does it have inverses?", "Yes."}, got)
}
