package defbank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxitex/internal/types"
)

func TestNormalizeTermStripsDelimitersAndCase(t *testing.T) {
	assert.Equal(t, "f", NormalizeTerm("f"))
	assert.Equal(t, "F", NormalizeTerm("F"))
	assert.Equal(t, "varphi", NormalizeTerm(`\varphi`))
	assert.Equal(t, "group", NormalizeTerm("$group$"))
	assert.Equal(t, "group", NormalizeTerm("{group}"))
	assert.Equal(t, "abelian group", NormalizeTerm("Abelian Group (algebraic)"))
}

func TestRegisterAndFind(t *testing.T) {
	b := New()
	b.Register(&types.Definition{Term: "Group", DefinitionText: "A set with an associative binary operation.", Aliases: []string{`\mathcal{G}`}})

	def, ok := b.Find("group")
	require.True(t, ok)
	assert.Equal(t, "Group", def.Term)

	def, ok = b.Find(`\mathcal{G}`)
	require.True(t, ok)
	assert.Equal(t, "Group", def.Term)

	_, ok = b.Find("ring")
	assert.False(t, ok)
}

func TestFindManyDedupsByCanonicalTerm(t *testing.T) {
	b := New()
	b.Register(&types.Definition{Term: "Group", DefinitionText: "...", Aliases: []string{"grp"}})

	found := b.FindMany([]string{"group", "Group", "grp", "missing"})
	assert.Len(t, found, 1)
}

func TestFindBestBaseDefinitionSubPhrase(t *testing.T) {
	b := New()
	b.Register(&types.Definition{Term: "group", DefinitionText: "base"})

	def, ok := b.FindBestBaseDefinition("abelian group")
	require.True(t, ok)
	assert.Equal(t, "group", def.Term)
}

func TestFindBestBaseDefinitionParameterized(t *testing.T) {
	b := New()
	b.Register(&types.Definition{Term: "p group", DefinitionText: "base"})

	def, ok := b.FindBestBaseDefinition("q group")
	require.True(t, ok)
	assert.Equal(t, "p group", def.Term)
}

func TestMergeRedundanciesKeepsShortestTermAsPrimary(t *testing.T) {
	b := New()
	b.Register(&types.Definition{Term: "abelian group", DefinitionText: "commutative group"})
	b.Register(&types.Definition{Term: "commutative group", DefinitionText: "commutative group"})

	b.MergeRedundancies()

	dict := b.ToDict()
	require.Len(t, dict, 1)
	var kept *types.Definition
	for _, d := range dict {
		kept = d
	}
	assert.Equal(t, "abelian group", kept.Term)
	assert.Contains(t, kept.Aliases, "commutative group")

	_, ok := b.Find("commutative group")
	assert.True(t, ok, "redundant term must remain findable via its new alias")
}

func TestResolveInternalDependencies(t *testing.T) {
	b := New()
	b.Register(&types.Definition{Term: "group", DefinitionText: "A set with an operation."})
	b.Register(&types.Definition{Term: "abelian group", DefinitionText: "A group where the operation commutes."})

	b.ResolveInternalDependencies()

	def, ok := b.Find("abelian group")
	require.True(t, ok)
	assert.Contains(t, def.Dependencies, "group")
}

func TestCanonicalSearchStringPadsPunctuation(t *testing.T) {
	assert.Equal(t, "f ( x ) = y", CanonicalSearchString("f(x)=y"))
}
