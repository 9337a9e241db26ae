package classify

import (
	"fmt"
	"testing"

	"arxitex/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTaggedError(t *testing.T) {
	err := New(NoLatexSource, types.StageExtract, "paper is PDF-only")

	got := Classify(err, types.StageUnknown)
	require.NotNil(t, got)
	assert.Equal(t, NoLatexSource, got.Code)
	assert.Equal(t, types.StageExtract, got.Stage)
	assert.Equal(t, "paper is PDF-only", got.Message)
}

func TestClassifyWrappedTaggedError(t *testing.T) {
	cause := fmt.Errorf("gzip: invalid header")
	err := Wrap(SourceGzipCorrupt, types.StageExtract, "gzip archive is corrupted", cause)

	got := Classify(err, types.StageUnknown)
	require.NotNil(t, got)
	assert.Equal(t, SourceGzipCorrupt, got.Code)
	assert.Contains(t, got.Message, "gzip: invalid header")
}

func TestClassifySubstringFallback(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantCode string
		wantStage types.Stage
	}{
		{"invalid id", fmt.Errorf("invalid arxiv id format: foo"), InvalidArxivID, types.StageDownload},
		{"empty graph", fmt.Errorf("empty graph produced"), GraphEmpty, types.StageGraphBuild},
		{"rate limited", fmt.Errorf("provider returned rate limit exceeded"), LLMRateLimited, types.StageLLM},
		{"timeout", fmt.Errorf("request timeout after 30s"), LLMTimeout, types.StageLLM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, types.StageUnknown)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStage, got.Stage)
		})
	}
}

func TestClassifyUnexpectedFallback(t *testing.T) {
	got := Classify(fmt.Errorf("something weird happened"), types.StageUnknown)
	require.NotNil(t, got)
	assert.Equal(t, UnexpectedError, got.Code)
	assert.Equal(t, types.StageUnknown, got.Stage)
}

func TestClassifyNilIsNil(t *testing.T) {
	assert.Nil(t, Classify(nil, types.StageUnknown))
}
