package citation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBestOpenAlexWorkFiltersThenPicksMaxCitations(t *testing.T) {
	candidates := []Work{
		{ID: "W1", Title: "Attention Is All You Need", CitedByCount: 50, AuthorNames: []string{"Ashish Vaswani"}},
		{ID: "W2", Title: "Attention Is All You Need", CitedByCount: 90000, AuthorNames: []string{"Ashish Vaswani"}},
		{ID: "W3", Title: "Some Unrelated Paper About Gardening", CitedByCount: 1000000, AuthorNames: []string{"Nobody Relevant"}},
	}

	best, ok := bestOpenAlexWork("Attention is all you need", []string{"Ashish Vaswani"}, candidates)
	assert.True(t, ok)
	assert.Equal(t, "W2", best.ID)
}

func TestBestOpenAlexWorkNoTitleFallsBackToMaxCitations(t *testing.T) {
	candidates := []Work{
		{ID: "A", CitedByCount: 3},
		{ID: "B", CitedByCount: 9},
	}
	best, ok := bestOpenAlexWork("", nil, candidates)
	assert.True(t, ok)
	assert.Equal(t, "B", best.ID)
}

func TestBestOpenAlexWorkEmptyCandidates(t *testing.T) {
	_, ok := bestOpenAlexWork("anything", nil, nil)
	assert.False(t, ok)
}

func TestFullNameAuthorOverlap(t *testing.T) {
	overlap := fullNameAuthorOverlap([]string{"Ashish Vaswani", "Noam Shazeer"}, []string{"Ashish Vaswani", "Someone Else"})
	assert.InDelta(t, 0.5, overlap, 0.001)
}

func TestFullNameAuthorOverlapEmptySides(t *testing.T) {
	assert.Equal(t, 0.0, fullNameAuthorOverlap(nil, []string{"A"}))
	assert.Equal(t, 0.0, fullNameAuthorOverlap([]string{"A"}, nil))
}

func TestBuildArxivQuery(t *testing.T) {
	q := buildArxivQuery("Attention Is All You Need", []string{"Ashish Vaswani"})
	assert.Equal(t, `ti:"Attention Is All You Need" AND au:vaswani`, q)
}

func TestBuildArxivQueryNoAuthors(t *testing.T) {
	q := buildArxivQuery("A Title", nil)
	assert.Equal(t, `ti:"A Title"`, q)
}

func TestReferenceCacheKeyStableAcrossAuthorOrderAndFormatting(t *testing.T) {
	k1 := referenceCacheKey("Attention Is All You Need", []string{"Vaswani, Ashish", "Shazeer, Noam"})
	k2 := referenceCacheKey("attention is all you need", []string{"Noam Shazeer", "Ashish Vaswani"})
	assert.Equal(t, k1, k2)
}

func TestReferenceCacheKeyDiffersOnDifferentTitle(t *testing.T) {
	k1 := referenceCacheKey("Attention Is All You Need", nil)
	k2 := referenceCacheKey("A Totally Different Paper", nil)
	assert.NotEqual(t, k1, k2)
}

func TestSearchCacheStale(t *testing.T) {
	assert.True(t, searchCacheStale("not-a-timestamp", 30))

	recent := time.Now().UTC().Add(-1 * time.Hour).Format(time.RFC3339)
	assert.False(t, searchCacheStale(recent, 30))

	old := time.Now().UTC().Add(-400 * 24 * time.Hour).Format(time.RFC3339)
	assert.True(t, searchCacheStale(old, 30))
}
