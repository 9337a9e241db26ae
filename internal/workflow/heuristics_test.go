package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCountFromComment(t *testing.T) {
	n, ok := pageCountFromComment("23 pages, 4 figures")
	assert.True(t, ok)
	assert.Equal(t, 23, n)
}

func TestPageCountFromCommentSingularPage(t *testing.T) {
	n, ok := pageCountFromComment("1 page")
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestPageCountFromCommentAbsent(t *testing.T) {
	_, ok := pageCountFromComment("accepted at NeurIPS 2023")
	assert.False(t, ok)
}

func TestMatchesTitleKeyword(t *testing.T) {
	kw, ok := matchesTitleKeyword("Lecture Notes on Algebraic Geometry", []string{"lecture", "survey"})
	assert.True(t, ok)
	assert.Equal(t, "lecture", kw)
}

func TestMatchesTitleKeywordNoMatch(t *testing.T) {
	_, ok := matchesTitleKeyword("A New Proof of the Riemann Hypothesis", []string{"lecture", "survey"})
	assert.False(t, ok)
}

func TestPreprocessSkipReasonPageCount(t *testing.T) {
	reason := preprocessSkipReason("A Paper", "200 pages", 100, nil)
	assert.Contains(t, reason, "page count 200 exceeds maximum 100")
}

func TestPreprocessSkipReasonKeywordTakesPriority(t *testing.T) {
	reason := preprocessSkipReason("Lecture Notes", "500 pages", 100, []string{"lecture"})
	assert.Contains(t, reason, "disqualifying keyword")
}

func TestPreprocessSkipReasonNone(t *testing.T) {
	reason := preprocessSkipReason("A Great Paper", "10 pages", 100, []string{"lecture"})
	assert.Equal(t, "", reason)
}

func TestPreprocessSkipReasonMaxPagesDisabled(t *testing.T) {
	reason := preprocessSkipReason("A Paper", "5000 pages", 0, nil)
	assert.Equal(t, "", reason)
}
