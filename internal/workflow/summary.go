package workflow

import (
	"arxitex/internal/classify"
	"arxitex/internal/types"
)

// Summary is the per-run JSON report of a processing workflow invocation:
// which papers succeeded, which were skipped pre-download and why, and
// which failed with their classified error.
type Summary struct {
	Succeeded []string         `json:"succeeded"`
	Skipped   []SkippedEntry   `json:"skipped"`
	Failed    []FailedEntry    `json:"failed"`
}

// SkippedEntry records one pre-processing skip decision.
type SkippedEntry struct {
	ArxivID string `json:"arxiv_id"`
	Reason  string `json:"reason"`
}

// FailedEntry records one classified processing failure.
type FailedEntry struct {
	ArxivID string `json:"arxiv_id"`
	Code    string `json:"code"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func NewSummary() *Summary {
	return &Summary{}
}

func (s *Summary) addSuccess(arxivID string) {
	s.Succeeded = append(s.Succeeded, arxivID)
}

func (s *Summary) addSkipped(arxivID, reason string) {
	s.Skipped = append(s.Skipped, SkippedEntry{ArxivID: arxivID, Reason: reason})
}

func (s *Summary) addFailure(arxivID string, err error) {
	c := classify.Classify(err, types.StageUnknown)
	s.Failed = append(s.Failed, FailedEntry{
		ArxivID: arxivID,
		Code:    c.Code,
		Stage:   string(c.Stage),
		Message: c.Message,
	})
}

// Counts returns (succeeded, skipped, failed) totals.
func (s *Summary) Counts() (int, int, int) {
	return len(s.Succeeded), len(s.Skipped), len(s.Failed)
}
