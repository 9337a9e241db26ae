package arxivid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidModern(t *testing.T) {
	assert.True(t, Valid("2103.14030"))
	assert.True(t, Valid("2103.14030v2"))
	assert.True(t, Valid("1234.56789"))
}

func TestValidLegacy(t *testing.T) {
	assert.True(t, Valid("math/0601001"))
	assert.True(t, Valid("math.AG/0601001"))
	assert.True(t, Valid("math.AG/0601001v1"))
}

func TestValidRejectsGarbage(t *testing.T) {
	assert.False(t, Valid("not-an-id"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("2103"))
}

func TestParseClassifiesInvalid(t *testing.T) {
	err := Parse("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arxiv id format")
}

func TestBaseIDStripsVersion(t *testing.T) {
	assert.Equal(t, "1234.5678", BaseID("1234.5678v2"))
	assert.Equal(t, "1234.5678", BaseID("1234.5678"))
	assert.Equal(t, "math.AG/0601001", BaseID("math.AG/0601001v3"))
}

func TestFromEntryID(t *testing.T) {
	assert.Equal(t, "1234.5678", FromEntryID("http://arxiv.org/abs/1234.5678"))
	assert.Equal(t, "1234.5678v2", FromEntryID("http://arxiv.org/abs/1234.5678v2"))
	assert.Equal(t, "1234.5678", FromEntryID("http://arxiv.org/something/1234.5678"))
}
