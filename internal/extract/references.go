package extract

import (
	"regexp"
	"strings"

	"arxitex/internal/types"
)

// bibEntry is one resolved bibliography record.
type bibEntry struct {
	fullReference string
	arxivID       string
}

// parsedRef is an explicit or manually-discovered reference/citation found
// in an artifact's content or proof, prior to edge construction.
type parsedRef struct {
	targetID      string
	refType       types.ReferenceType
	context       string
	fullReference string
	arxivID       string
	note          string
}

var (
	bibEmbeddedPattern = regexp.MustCompile(`(?s)\\begin\{thebibliography\}(.*?)\\end\{thebibliography\}`)
	bibItemPattern     = regexp.MustCompile(`(?s)\\bibitem(?:\[(.*?)\])?\{(.*?)\}`)
	bibEntryArxivRe    = regexp.MustCompile(`(?i)(?:arxiv[:\s]*|eprint\s*=\s*\{\s*)([\d.\/v-]+)`)
	bibFieldArxivRe    = regexp.MustCompile(`(?is)(?:archiveprefix|eprint)\s*=\s*.*?([\d.\/v-]+)`)
	bibEntryPattern    = regexp.MustCompile(`(?s)@\w+\s*\{([^,]*),(.*?)(?:\n@|\z)`)
	whitespaceRun      = regexp.MustCompile(`\s+`)

	explicitRefPattern = regexp.MustCompile(
		`\\(?:[cC]ref|[vV]ref|[Aa]utoref|ref|eqref)\s*\{([^}]+)\}`)
	explicitCitePattern = regexp.MustCompile(
		`\\cite[pt]?\*?(?:\[([^\]]*)\])?\{([^}]+)\}`)
)

// findAndParseBibliography implements the priority order of §4.3: an
// embedded thebibliography environment first, else all .bbl files merged,
// else all .bib files merged.
func findAndParseBibliography(content string, bblContents, bibContents []string) map[string]bibEntry {
	if m := bibEmbeddedPattern.FindStringSubmatch(content); m != nil {
		return parseBblContent(m[1])
	}
	if len(bblContents) > 0 {
		merged := make(map[string]bibEntry)
		for _, c := range bblContents {
			for k, v := range parseBblContent(c) {
				if _, exists := merged[k]; !exists {
					merged[k] = v
				}
			}
		}
		return merged
	}
	if len(bibContents) > 0 {
		merged := make(map[string]bibEntry)
		for _, c := range bibContents {
			for k, v := range parseBibContent(c) {
				if _, exists := merged[k]; !exists {
					merged[k] = v
				}
			}
		}
		return merged
	}
	return map[string]bibEntry{}
}

func parseBblContent(bbl string) map[string]bibEntry {
	out := make(map[string]bibEntry)
	// Each entry's text runs from the end of its \bibitem header to the next
	// \bibitem, \end{thebibliography}, or the end of the input.
	items := bibItemPattern.FindAllStringSubmatchIndex(bbl, -1)
	for i, m := range items {
		optionalKey, mandatoryKey := "", bbl[m[4]:m[5]]
		if m[2] != -1 {
			optionalKey = bbl[m[2]:m[3]]
		}
		textEnd := len(bbl)
		if i+1 < len(items) {
			textEnd = items[i+1][0]
		}
		refText := bbl[m[1]:textEnd]
		if idx := strings.Index(refText, `\end{thebibliography}`); idx != -1 {
			refText = refText[:idx]
		}
		refText = strings.TrimSpace(whitespaceRun.ReplaceAllString(refText, " "))

		var arxivID string
		if am := bibEntryArxivRe.FindStringSubmatch(refText); am != nil {
			arxivID = strings.TrimSpace(am[1])
		}
		entry := bibEntry{fullReference: refText, arxivID: arxivID}

		if mandatoryKey != "" {
			out[strings.TrimSpace(mandatoryKey)] = entry
		}
		if optionalKey != "" {
			out[strings.TrimSpace(optionalKey)] = entry
		}
	}
	return out
}

func parseBibContent(bib string) map[string]bibEntry {
	out := make(map[string]bibEntry)
	for _, m := range bibEntryPattern.FindAllStringSubmatch(bib, -1) {
		citeKey, fields := strings.TrimSpace(m[1]), m[2]
		refText := citeKey + ": " + strings.TrimSpace(fields)
		var arxivID string
		if am := bibFieldArxivRe.FindStringSubmatch(fields); am != nil {
			arxivID = strings.TrimSpace(am[1])
		}
		out[citeKey] = bibEntry{fullReference: refText, arxivID: arxivID}
	}
	return out
}

// indexAllLabels collects every \label{...} declared anywhere in the
// document, used to distinguish a dangling artifact reference from one that
// legitimately targets a non-artifact entity (an equation, a section).
func indexAllLabels(content string) map[string]bool {
	labels := make(map[string]bool)
	for _, m := range labelPattern.FindAllStringSubmatch(content, -1) {
		labels[strings.TrimSpace(m[1])] = true
	}
	return labels
}

var labelNormalizeRun = regexp.MustCompile(`[:\-\s_]+`)

// normalizeLabel tolerates minor formatting differences between a \label
// declaration and the \ref that targets it: lowercase, and collapse runs of
// ':', '-', '_', or whitespace to a single ':'.
func normalizeLabel(s string) string {
	if s == "" {
		return ""
	}
	t := strings.ToLower(strings.TrimSpace(s))
	t = labelNormalizeRun.ReplaceAllString(t, ":")
	return strings.Trim(t, ":")
}

// extractReferencesFromNode scans an artifact's content and proof for
// explicit \ref-style and \cite-style commands, then runs the manual
// bracket-span fast path over any bibliography keys the explicit scan
// missed.
func extractReferencesFromNode(node *types.Artifact, bibMap map[string]bibEntry) []parsedRef {
	var parts []string
	if node.ContentTex != "" {
		parts = append(parts, node.ContentTex)
	}
	if node.ProofTex != "" {
		parts = append(parts, node.ProofTex)
	}
	full := strings.Join(parts, "\n\n")
	if full == "" {
		return nil
	}

	var refs []parsedRef
	foundCiteKeys := make(map[string]bool)

	type occurrence struct {
		start, end int
		isCite     bool
		note       string
		keys       string
	}
	var occurrences []occurrence
	for _, m := range explicitRefPattern.FindAllStringSubmatchIndex(full, -1) {
		occurrences = append(occurrences, occurrence{start: m[0], end: m[1], keys: full[m[2]:m[3]]})
	}
	for _, m := range explicitCitePattern.FindAllStringSubmatchIndex(full, -1) {
		var note string
		if m[2] != -1 {
			note = full[m[2]:m[3]]
		}
		occurrences = append(occurrences, occurrence{start: m[0], end: m[1], isCite: true, note: note, keys: full[m[4]:m[5]]})
	}

	for _, occ := range occurrences {
		contextStart := max(0, occ.start-50)
		contextEnd := min(len(full), occ.end+50)
		context := strings.TrimSpace(strings.ReplaceAll(full[contextStart:contextEnd], "\n", " "))

		if !occ.isCite {
			for _, key := range strings.Split(occ.keys, ",") {
				key = strings.TrimSpace(key)
				if key == "" {
					continue
				}
				refs = append(refs, parsedRef{targetID: key, refType: types.ReferenceInternal, context: context})
			}
			continue
		}

		note := strings.TrimSpace(occ.note)
		for _, key := range strings.Split(occ.keys, ",") {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			foundCiteKeys[key] = true
			if entry, ok := bibMap[key]; ok {
				refs = append(refs, parsedRef{
					targetID: key, refType: types.ReferenceExternal, context: context,
					fullReference: entry.fullReference, arxivID: entry.arxivID, note: note,
				})
			} else {
				refs = append(refs, parsedRef{
					targetID: key, refType: types.ReferenceExternal, context: context,
					fullReference: "UNRESOLVED: citation key '" + key + "' not found in bibliography.", note: note,
				})
			}
		}
	}

	for _, span := range bracketSpans(full, 500) {
		inner := span[1 : len(span)-1]
		tokens := bibKeyTokenPattern.FindAllString(inner, -1)
		var matched []string
		for _, t := range tokens {
			if _, ok := bibMap[t]; ok && !foundCiteKeys[t] {
				matched = append(matched, t)
			}
		}
		if len(matched) == 0 {
			continue
		}
		for _, key := range matched {
			foundCiteKeys[key] = true
			entry := bibMap[key]

			noteText := inner
			for _, k := range matched {
				noteText = regexp.MustCompile(`\b`+regexp.QuoteMeta(k)+`\b`).ReplaceAllString(noteText, "")
			}
			note := strings.Trim(noteText, " ,")

			dup := false
			for _, r := range refs {
				if r.targetID == key && r.note == note {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			refs = append(refs, parsedRef{
				targetID: key, refType: types.ReferenceExternal, context: span,
				fullReference: entry.fullReference, arxivID: entry.arxivID, note: note,
			})
		}
	}

	return refs
}

var bibKeyTokenPattern = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9:_.\-]*`)

// bracketSpans yields non-nested bracket/paren spans like "[...]" or "(...)",
// bounded by maxChars to avoid pathological scans over huge spans.
func bracketSpans(text string, maxChars int) []string {
	var spans []string
	for _, pair := range [][2]byte{{'[', ']'}, {'(', ')'}} {
		open, close := pair[0], pair[1]
		start := 0
		for {
			i := strings.IndexByte(text[start:], open)
			if i == -1 {
				break
			}
			i += start
			j := strings.IndexByte(text[i+1:], close)
			if j == -1 {
				break
			}
			j += i + 1
			if j-i+1 <= maxChars {
				spans = append(spans, text[i:j+1])
			}
			start = j + 1
		}
	}
	return spans
}

