package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaperFromMetadata(t *testing.T) {
	meta := map[string]any{
		"title":            "A Paper",
		"abstract":         "An abstract.",
		"comment":          "10 pages",
		"primary_category": "math.AG",
		"categories":       []any{"math.AG", "math.NT"},
		"authors":          []any{"Jane Doe", "John Roe"},
	}

	paper := paperFromMetadata("2301.12345", meta)
	assert.Equal(t, "2301.12345", paper.ArxivID)
	assert.Equal(t, "A Paper", paper.Title)
	assert.Equal(t, "An abstract.", paper.Abstract)
	assert.Equal(t, "10 pages", paper.Comment)
	assert.Equal(t, "math.AG", paper.PrimaryCategory)
	assert.Equal(t, []string{"math.AG", "math.NT"}, paper.AllCategories)
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, paper.Authors)
}

func TestPaperFromMetadataMissingFields(t *testing.T) {
	paper := paperFromMetadata("2301.12345", map[string]any{})
	assert.Equal(t, "2301.12345", paper.ArxivID)
	assert.Equal(t, "", paper.Title)
	assert.Nil(t, paper.Authors)
}
