// Package texdialect implements C2: detecting whether a paper's LaTeX
// source uses the standard environment model or an older AMS-TeX/plain-TeX
// dialect, and normalizing the latter into the canonical
// \begin{X}...\end{X} form the structural extractor (C3) understands.
package texdialect

import (
	"regexp"
	"strings"
)

// Dialect is the detected TeX flavor of a paper's combined source.
type Dialect string

const (
	LaTeX    Dialect = "latex"
	AMSTeX   Dialect = "ams_tex"
	PlainTeX Dialect = "plain_tex"
	Unknown  Dialect = "unknown"
)

var (
	latexMarkers = []string{`\documentclass`, `\begin{document}`, `\usepackage`}
	amsMarkers   = []string{
		`\proclaim`, `\endproclaim`, `\demo`, `\enddemo`,
		`\input amstex`, `\documentstyle{amsppt`, `\documentstyle{ams`,
	}
	plainMarkers = []string{`\bye`, `\magnification`, `\headline`, `\footline`, `\nopagenumbers`}

	looksLikeTeX = regexp.MustCompile(`\\[a-zA-Z@]+`)
)

// Detect is a best-effort classification: its purpose is to decide whether
// to run the normalization pass before structural extraction, not to
// perfectly identify the dialect.
func Detect(content string) Dialect {
	if content == "" {
		return Unknown
	}
	lower := strings.ToLower(content)

	if containsAny(lower, latexMarkers) {
		return LaTeX
	}
	if containsAny(lower, amsMarkers) {
		return AMSTeX
	}
	if containsAny(lower, plainMarkers) {
		return PlainTeX
	}
	return Unknown
}

func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// looksLikeTeXContent is unused by Detect directly (matching the original's
// fallback branch, which always yields Unknown anyway) but kept available
// for callers that want to distinguish "no TeX markers at all" from
// "TeX-like but unclassified".
func looksLikeTeXContent(content string) bool {
	return strings.Contains(content, `\`) && looksLikeTeX.MatchString(content)
}
