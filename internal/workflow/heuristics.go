package workflow

import (
	"regexp"
	"strconv"
	"strings"
)

var pageCountRe = regexp.MustCompile(`(\d+)\s*pages?`)

// pageCountFromComment extracts a page count from arXiv comment metadata
// ("23 pages, 4 figures"), returning (0, false) if none is present.
func pageCountFromComment(comment string) (int, bool) {
	m := pageCountRe.FindStringSubmatch(comment)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// matchesTitleKeyword reports whether title contains any of keywords,
// case-insensitively, per the title-keyword skip heuristic.
func matchesTitleKeyword(title string, keywords []string) (string, bool) {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

// preprocessSkipReason applies both pre-processing heuristics and returns
// a human-readable skip reason, or "" if the paper should proceed.
func preprocessSkipReason(title, comment string, maxPages int, titleKeywords []string) string {
	if kw, ok := matchesTitleKeyword(title, titleKeywords); ok {
		return "title contains disqualifying keyword: " + kw
	}
	if maxPages > 0 {
		if n, ok := pageCountFromComment(comment); ok && n > maxPages {
			return "page count " + strconv.Itoa(n) + " exceeds maximum " + strconv.Itoa(maxPages)
		}
	}
	return ""
}
