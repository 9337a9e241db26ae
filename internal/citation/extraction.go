package citation

import (
	"regexp"
	"strings"
)

var (
	quotedTitleRes = []*regexp.Regexp{
		regexp.MustCompile(`“([^”]{6,})”`),
		regexp.MustCompile(`"([^"]{6,})"`),
		regexp.MustCompile(`'([^']{6,})'`),
	}
	emphTitleRe = regexp.MustCompile(`\\emph\{([^}]{6,})\}`)

	texCommandRe = regexp.MustCompile(`\\[a-zA-Z@]+\*?(?:\[[^\]]*\])?(?:\{[^}]*\})?`)
	etAlRe       = regexp.MustCompile(`(?i)\bet\s+al\b\.?`)
	yearRe       = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	venueNoiseRe = regexp.MustCompile(`(?i)\bvol\b|\bno\b|\bpp\b|pages?\b|journal\b|proc\b`)
	authorNoiseRe = regexp.MustCompile(`(?i)\b(arxiv|doi|http|vol|no|pp|pages?)\b`)
	letterRe     = regexp.MustCompile(`[A-Za-z]`)

	// arxivIDInTextRe recognizes an arXiv id embedded in free text, the
	// fast path tried before any heuristic title extraction.
	arxivIDInTextRe = regexp.MustCompile(`(?i)(?:arxiv\s*[:\s]*|\babs/)([\d.]{4}\.\d{4,5}(?:v\d+)?|[a-z-]+(?:\.[a-z-]+)?/\d{7}(?:v\d+)?)`)
)

// tryExtractArxivIDFromText is the direct-regex fast path: a bibliography
// entry that already names its arXiv id needs no search.
func tryExtractArxivIDFromText(text string) string {
	m := arxivIDInTextRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// stripTexCommandsForHeuristics is a best-effort TeX-command stripper used
// only by the title/author extraction heuristics (not the canonical
// normalization used for scoring).
func stripTexCommandsForHeuristics(s string) string {
	t := texCommandRe.ReplaceAllString(s, " ")
	t = bracesRe.ReplaceAllString(t, " ")
	t = stripAccents(t)
	return normWS(t)
}

// extractTitleAndAuthors heuristically pulls (title, authors) out of a
// bibliography-entry string: quoted titles, \emph{...} markup, else the
// longest plausible comma-delimited segment.
func extractTitleAndAuthors(fullReference string) (string, []string) {
	ref := normWS(fullReference)
	if ref == "" {
		return "", nil
	}

	for _, re := range quotedTitleRes {
		if loc := re.FindStringSubmatchIndex(ref); loc != nil {
			title := normWS(ref[loc[2]:loc[3]])
			authors := extractAuthorsPrefix(ref[:loc[0]])
			return title, authors
		}
	}

	if loc := emphTitleRe.FindStringSubmatchIndex(ref); loc != nil {
		title := normWS(ref[loc[2]:loc[3]])
		authors := extractAuthorsPrefix(ref[:loc[0]])
		return title, authors
	}

	clean := stripTexCommandsForHeuristics(ref)
	parts := splitNonEmpty(clean, ",")
	if len(parts) < 2 {
		return "", nil
	}

	var candidates []string
	for _, seg := range parts {
		if isNoiseSegment(seg) {
			continue
		}
		if len(seg) >= 10 && letterRe.MatchString(seg) {
			candidates = append(candidates, seg)
		}
	}
	if len(candidates) == 0 {
		return "", nil
	}

	title := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) > len(title) {
			title = c
		}
	}

	joined := strings.Join(parts, ", ")
	var authors []string
	if idx := strings.Index(strings.ToLower(joined), strings.ToLower(title)); idx > 0 {
		authors = extractAuthorsPrefix(joined[:idx])
	}

	return normWS(title), authors
}

func isNoiseSegment(seg string) bool {
	lower := strings.ToLower(seg)
	if strings.Contains(lower, "arxiv") || strings.Contains(lower, "doi") || strings.Contains(lower, "http") {
		return true
	}
	if yearRe.MatchString(lower) {
		return true
	}
	return venueNoiseRe.MatchString(lower)
}

// extractAuthorsPrefix pulls a bounded list of author-like tokens out of
// the text preceding an extracted title.
func extractAuthorsPrefix(prefix string) []string {
	p := stripTexCommandsForHeuristics(prefix)
	p = etAlRe.ReplaceAllString(p, " ")
	p = normWS(p)
	if p == "" {
		return nil
	}

	var raw []string
	if strings.Contains(strings.ToLower(p), " and ") {
		raw = splitOnWord(p, "and")
	} else {
		raw = splitNonEmpty(p, ",")
	}

	var out []string
	for _, a := range raw {
		a = strings.Trim(a, " ,")
		if len(a) < 3 {
			continue
		}
		if authorNoiseRe.MatchString(a) {
			continue
		}
		if !letterRe.MatchString(a) {
			continue
		}
		out = append(out, normWS(a))
		if len(out) >= 6 {
			break
		}
	}
	return out
}

var wordBoundaryAndRe = regexp.MustCompile(`(?i)\band\b`)

func splitOnWord(s, _ string) []string {
	var out []string
	for _, p := range wordBoundaryAndRe.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
