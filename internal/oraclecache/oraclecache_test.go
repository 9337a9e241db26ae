package oraclecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheMissThenHit(t *testing.T) {
	c := New(t.TempDir())

	_, ok := c.Get("claude-haiku", "prompt-a")
	assert.False(t, ok)

	c.Put("claude-haiku", "prompt-a", `{"terms":["group"]}`)

	got, ok := c.Get("claude-haiku", "prompt-a")
	assert.True(t, ok)
	assert.Equal(t, `{"terms":["group"]}`, got)
}

func TestCacheKeyedByModelAndPrompt(t *testing.T) {
	c := New(t.TempDir())
	c.Put("model-a", "same prompt", "response-a")
	c.Put("model-b", "same prompt", "response-b")

	got, ok := c.Get("model-a", "same prompt")
	assert.True(t, ok)
	assert.Equal(t, "response-a", got)

	got, ok = c.Get("model-b", "same prompt")
	assert.True(t, ok)
	assert.Equal(t, "response-b", got)
}
