package citation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

var (
	collapseWhitespaceRe = regexp.MustCompile(`\s+`)
	nonAlnumRe           = regexp.MustCompile(`[^a-z0-9\s]`)
	texEmphRe            = regexp.MustCompile(`\\(emph|textit|textbf|itshape|bfseries)\b`)
	bracesRe             = regexp.MustCompile(`[{}]`)
	mathSpanRe           = regexp.MustCompile(`\$[^$]*\$`)
)

func normWS(s string) string {
	return collapseWhitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// stripAccents decomposes Unicode accents (NFKD) and drops the combining
// marks, so "Erdős" compares equal to "Erdos".
func stripAccents(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizeTitle makes a title robust to case, punctuation, and TeX/math
// noise for fuzzy comparison.
func normalizeTitle(s string) string {
	t := stripAccents(s)
	t = strings.ToLower(t)
	t = texEmphRe.ReplaceAllString(t, " ")
	t = bracesRe.ReplaceAllString(t, " ")
	t = mathSpanRe.ReplaceAllString(t, " ")
	t = nonAlnumRe.ReplaceAllString(t, " ")
	return normWS(t)
}

// normalizeAuthor normalizes one author's display name: strips accents,
// swaps "Last, First" to "first last", and drops punctuation.
func normalizeAuthor(s string) string {
	t := stripAccents(strings.TrimSpace(s))
	t = strings.ToLower(t)
	if t == "" {
		return ""
	}
	if strings.Contains(t, ",") {
		parts := splitNonEmpty(t, ",")
		if len(parts) >= 2 {
			t = strings.Join(append(parts[1:], parts[0]), " ")
		}
	}
	t = nonAlnumRe.ReplaceAllString(t, " ")
	return normWS(t)
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// lastName returns the final whitespace-delimited token of a normalized
// author name, since bibliographies often abbreviate given names while
// arXiv returns full ones.
func lastName(author string) string {
	na := normalizeAuthor(author)
	toks := strings.Fields(na)
	if len(toks) == 0 {
		return ""
	}
	return toks[len(toks)-1]
}

// titleSimilarity returns a 0..1 ratio via the same character-level
// sequence-matching algorithm as Python's difflib.SequenceMatcher, ported
// to Go character slices so the thresholds below carry over exactly.
func titleSimilarity(wanted, got string) float64 {
	a, b := normalizeTitle(wanted), normalizeTitle(got)
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

func splitChars(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// authorOverlap compares by last name only, since bibliographies often
// abbreviate given names ("J. Doe") while arXiv returns full ones. Returns
// 0 if either side has no recognizable names.
func authorOverlap(wanted, got []string) float64 {
	w := lastNameSet(wanted)
	g := lastNameSet(got)
	if len(w) == 0 || len(g) == 0 {
		return 0
	}
	matches := 0
	for n := range w {
		if g[n] {
			matches++
		}
	}
	return float64(matches) / float64(len(w))
}

func lastNameSet(authors []string) map[string]bool {
	set := make(map[string]bool, len(authors))
	for _, a := range authors {
		if n := lastName(a); n != "" {
			set[n] = true
		}
	}
	return set
}

// Thresholds, per §4.10.
const (
	highTitleSimilarityWithAuthors    = 0.92
	highTitleSimilarityWithoutAuthors = 0.96
	minAuthorOverlap                  = 0.10
)

// isHighConfidenceMatch applies the shared title-similarity/author-overlap
// gate used by both the total-citations backfill and the external-reference
// match backfill.
func isHighConfidenceMatch(titleScore, overlap float64, haveWantedAuthors bool) bool {
	threshold := highTitleSimilarityWithoutAuthors
	if haveWantedAuthors {
		threshold = highTitleSimilarityWithAuthors
	}
	if titleScore < threshold {
		return false
	}
	if haveWantedAuthors && overlap < minAuthorOverlap {
		return false
	}
	return true
}
