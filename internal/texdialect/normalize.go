package texdialect

import (
	"regexp"
	"strings"
)

// NormalizationResult is the outcome of a normalization pass.
type NormalizationResult struct {
	Content string
	Changed bool
}

var canonicalTypes = []string{
	"theorem", "lemma", "proposition", "corollary", "definition",
	"remark", "example", "claim", "observation", "fact", "conjecture",
}

func inferArtifactTypeFromTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, k := range canonicalTypes {
		if strings.Contains(t, k) {
			return k
		}
	}
	switch {
	case strings.Contains(t, "prop"):
		return "proposition"
	case strings.Contains(t, "cor"):
		return "corollary"
	case strings.Contains(t, "def"):
		return "definition"
	case strings.Contains(t, "thm"):
		return "theorem"
	case strings.Contains(t, "lem"):
		return "lemma"
	}
	return "unknown"
}

var (
	demoPattern = regexp.MustCompile(`(?s)\\demo\b(.*?)(?:\\enddemo\b)`)

	proclaimBraced = regexp.MustCompile(`(?s)\\proclaim\s*\{([^}]*)\}\s*(.*?)(?:\\endproclaim\b)`)
	proofEnvInline = regexp.MustCompile(`(?s)\\begin\{proof\}(.*?)\\end\{proof\}`)

	// proclaimOpen matches an unterminated \proclaim{Title} opener; the body
	// extent is computed manually (Go's RE2 has no lookahead) by scanning
	// forward for the next stop marker.
	proclaimOpen = regexp.MustCompile(`\\proclaim\s*\{([^}]*)\}`)
	stopMarkers  = []string{`\proclaim`, `\demo`, `\bye`, `\end{document}`}
)

// Normalize rewrites AMS-TeX/plain-TeX statement and proof blocks into the
// canonical \begin{X}[...]...\end{X} / \begin{proof}...\end{proof} form.
// It is a no-op for the LaTeX dialect and for empty content.
func Normalize(content string, dialect Dialect) NormalizationResult {
	if content == "" {
		return NormalizationResult{Content: "", Changed: false}
	}
	if dialect == LaTeX {
		return NormalizationResult{Content: content, Changed: false}
	}
	if dialect != AMSTeX && dialect != PlainTeX && dialect != Unknown {
		return NormalizationResult{Content: content, Changed: false}
	}

	changed := false
	out := content

	out = demoPattern.ReplaceAllStringFunc(out, func(m string) string {
		changed = true
		sub := demoPattern.FindStringSubmatch(m)
		body := strings.TrimSpace(sub[1])
		return "\\begin{proof}\n" + body + "\n\\end{proof}"
	})

	out = proclaimBraced.ReplaceAllStringFunc(out, func(m string) string {
		changed = true
		// Only the last opener in the match owns the \endproclaim; any
		// earlier opener is unterminated and its body ends at the next one.
		var prefix string
		if locs := proclaimOpen.FindAllStringIndex(m, -1); len(locs) > 1 {
			last := locs[len(locs)-1][0]
			prefix = normalizeUnterminatedProclaims(m[:last], &changed) + "\n"
			m = m[last:]
		}
		sub := proclaimBraced.FindStringSubmatch(m)
		return prefix + renderProclaim(sub[1], sub[2])
	})

	out = normalizeUnterminatedProclaims(out, &changed)

	return NormalizationResult{Content: out, Changed: changed}
}

// renderProclaim lifts any proof environments nested inside the proclaim
// body out as sibling \begin{proof} blocks (proof_linker and the base
// extractor do not descend into nested environments), then emits the
// canonical statement environment.
func renderProclaim(title, body string) string {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	env := inferArtifactTypeFromTitle(title)

	var opt string
	if title != "" {
		opt = "[" + title + "]"
	}

	var lifted []string
	bodyWithoutProofs := proofEnvInline.ReplaceAllStringFunc(body, func(m string) string {
		sub := proofEnvInline.FindStringSubmatch(m)
		lifted = append(lifted, "\\begin{proof}\n"+strings.TrimSpace(sub[1])+"\n\\end{proof}")
		return ""
	})
	bodyWithoutProofs = strings.TrimSpace(bodyWithoutProofs)

	statement := "\\begin{" + env + "}" + opt + "\n" + bodyWithoutProofs + "\n\\end{" + env + "}"
	if len(lifted) > 0 {
		return statement + "\n" + strings.Join(lifted, "\n")
	}
	return statement
}

// normalizeUnterminatedProclaims handles \proclaim{Title}... blocks missing
// a matching \endproclaim: the body runs up to the next \proclaim, \demo,
// \bye, \end{document}, or end of string.
func normalizeUnterminatedProclaims(content string, changed *bool) string {
	var b strings.Builder
	cursor := 0
	for {
		loc := proclaimOpen.FindStringSubmatchIndex(content[cursor:])
		if loc == nil {
			b.WriteString(content[cursor:])
			break
		}
		matchStart := cursor + loc[0]
		matchEnd := cursor + loc[1]
		titleStart, titleEnd := cursor+loc[2], cursor+loc[3]

		bodyEnd := len(content)
		for _, marker := range stopMarkers {
			if idx := strings.Index(content[matchEnd:], marker); idx != -1 {
				pos := matchEnd + idx
				if pos < bodyEnd {
					bodyEnd = pos
				}
			}
		}

		b.WriteString(content[cursor:matchStart])
		title := content[titleStart:titleEnd]
		body := content[matchEnd:bodyEnd]
		*changed = true
		b.WriteString(renderProclaim(title, body))

		cursor = bodyEnd
	}
	return b.String()
}
