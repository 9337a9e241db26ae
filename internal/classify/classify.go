// Package classify implements the C8 error classifier: it maps any raw
// failure surfaced during per-paper processing to a stable
// (code, message, stage, exception_type) record, conservatively, so that
// internal refactors cannot silently demote a structured code to
// unexpected_error.
package classify

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"arxitex/internal/types"
)

// Stable codes, matching spec §4.8 exactly.
const (
	NoLatexSource           = "no_latex_source"
	SourceDownloadFailed    = "source_download_failed"
	PaperWithdrawn          = "paper_withdrawn"
	SourceBlockedByRecaptcha = "source_blocked_by_recaptcha"
	SourceGzipCorrupt       = "source_gzip_corrupt"
	SourceTarCorrupt        = "source_tar_corrupt"
	SourceZipCorrupt        = "source_zip_corrupt"
	SourceExtractFailed     = "source_extract_failed"
	ExtractorError          = "extractor_error"
	InvalidArxivID          = "invalid_arxiv_id"
	GraphEmpty              = "graph_empty"
	LLMRateLimited          = "llm_rate_limited"
	LLMTimeout              = "llm_timeout"
	LLMAPIError             = "llm_api_error"
	LLMConnectionError      = "llm_connection_error"
	UnexpectedError         = "unexpected_error"
)

// Error is a failure pre-tagged by the package that raised it (fetch,
// extract, arxivid, oracle, ...) with a stable code and owning stage.
// Classify recognizes any error satisfying this interface first, before
// falling back to type/substring sniffing, so the common path never
// depends on message text.
type Error interface {
	error
	Code() string
	Stage() types.Stage
}

// taggedError is the concrete Error implementation returned by New.
type taggedError struct {
	code  string
	stage types.Stage
	msg   string
	cause error
}

func New(code string, stage types.Stage, msg string) error {
	return &taggedError{code: code, stage: stage, msg: msg}
}

func Wrap(code string, stage types.Stage, msg string, cause error) error {
	return &taggedError{code: code, stage: stage, msg: msg, cause: cause}
}

func (e *taggedError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *taggedError) Unwrap() error   { return e.cause }
func (e *taggedError) Code() string    { return e.code }
func (e *taggedError) Stage() types.Stage { return e.stage }

// ClassifiedError is the normalized record stored in paper_ingestion_state
// and returned in workflow summary reports.
type ClassifiedError struct {
	Code          string
	Message       string
	Stage         types.Stage
	ExceptionType string
}

// Classify maps err to a ClassifiedError. defaultStage is used for the
// unexpected_error fallback when nothing more specific matches.
func Classify(err error, defaultStage types.Stage) *ClassifiedError {
	if err == nil {
		return nil
	}

	var tagged Error
	if errors.As(err, &tagged) {
		return &ClassifiedError{
			Code:          tagged.Code(),
			Message:       err.Error(),
			Stage:         tagged.Stage(),
			ExceptionType: exceptionType(err),
		}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	// Context / network timeouts, conservative and type-based first.
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Code: LLMTimeout, Message: msg, Stage: types.StageLLM, ExceptionType: exceptionType(err)}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClassifiedError{Code: LLMTimeout, Message: msg, Stage: types.StageLLM, ExceptionType: exceptionType(err)}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ClassifiedError{Code: LLMConnectionError, Message: msg, Stage: types.StageLLM, ExceptionType: exceptionType(err)}
	}

	switch {
	case strings.Contains(lower, "invalid arxiv id"):
		return &ClassifiedError{Code: InvalidArxivID, Message: msg, Stage: types.StageDownload, ExceptionType: exceptionType(err)}
	case strings.Contains(lower, "empty graph") || strings.Contains(lower, "empty or invalid graph"):
		return &ClassifiedError{Code: GraphEmpty, Message: msg, Stage: types.StageGraphBuild, ExceptionType: exceptionType(err)}
	case strings.Contains(lower, "rate limit"):
		return &ClassifiedError{Code: LLMRateLimited, Message: msg, Stage: types.StageLLM, ExceptionType: exceptionType(err)}
	case strings.Contains(lower, "timeout"):
		return &ClassifiedError{Code: LLMTimeout, Message: msg, Stage: types.StageLLM, ExceptionType: exceptionType(err)}
	}

	return &ClassifiedError{Code: UnexpectedError, Message: msg, Stage: defaultStage, ExceptionType: exceptionType(err)}
}

func exceptionType(err error) string {
	var tagged Error
	if errors.As(err, &tagged) {
		return "classify.Error"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "url.Error"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "net.Error"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "context.DeadlineExceeded"
	}
	return "error"
}
