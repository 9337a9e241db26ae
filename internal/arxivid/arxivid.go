// Package arxivid validates and normalizes arXiv identifiers, covering both
// the modern YYMM.NNNNN[vN] scheme and the legacy subject[.sub]/NNNNNNN[vN]
// scheme.
package arxivid

import (
	"regexp"
	"strings"

	"arxitex/internal/classify"
	"arxitex/internal/types"
)

var (
	modernRe = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)
	legacyRe = regexp.MustCompile(`^[a-z-]+(\.[A-Z]{2})?/\d{7}(v\d+)?$`)

	// versionRe strips a trailing vN suffix from either scheme.
	versionRe = regexp.MustCompile(`v\d+$`)
)

// Valid reports whether id matches one of the two recognized arXiv ID
// schemes.
func Valid(id string) bool {
	return modernRe.MatchString(id) || legacyRe.MatchString(id)
}

// Parse validates id and returns a classify.Error tagged invalid_arxiv_id
// when it does not match either scheme.
func Parse(id string) error {
	if !Valid(id) {
		return classify.New(classify.InvalidArxivID, types.StageDownload, "invalid arxiv id format: "+id)
	}
	return nil
}

// BaseID strips any trailing version suffix, per I7 ("citation counts are
// stored only per base paper id").
func BaseID(id string) string {
	return versionRe.ReplaceAllString(id, "")
}

// FromEntryID extracts an arXiv id from an Atom feed entry's <id> element,
// which is either an "/abs/<id>" URL or ends in the bare id as its last
// path segment.
func FromEntryID(entryID string) string {
	if idx := strings.Index(entryID, "/abs/"); idx != -1 {
		return entryID[idx+len("/abs/"):]
	}
	parts := strings.Split(strings.TrimRight(entryID, "/"), "/")
	return parts[len(parts)-1]
}
