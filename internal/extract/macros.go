package extract

import (
	"regexp"
	"strings"
)

// macroBody matches a balanced-once brace body: either no nested braces, or
// exactly one level of nested braces (covers the overwhelming majority of
// preamble macro definitions without a full brace-matching parser).
const macroBody = `(?:[^{}]|\{[^{}]*\})*`

var macroPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)\\newcommand\s*\{\s*\\(?P<name>[A-Za-z@]+)\s*\}\s*\{(?P<body>` + macroBody + `)\}`),
	regexp.MustCompile(`(?m)\\renewcommand\s*\{\s*\\(?P<name>[A-Za-z@]+)\s*\}\s*\{(?P<body>` + macroBody + `)\}`),
	regexp.MustCompile(`(?m)\\def\s*\\(?P<name>[A-Za-z@]+)\s*\{(?P<body>` + macroBody + `)\}`),
	regexp.MustCompile(`(?m)\\DeclareMathOperator\*?\s*\{\s*\\(?P<name>[A-Za-z@]+)\s*\}\s*\{(?P<body>` + macroBody + `)\}`),
}

// ExtractLaTeXMacros is a best-effort extraction of simple, argument-free
// LaTeX macros (\newcommand, \renewcommand, \def, \DeclareMathOperator)
// declared in the preamble. It returns a mapping from macro name (without
// the leading backslash) to its replacement body, e.g. {"cF": "\mathcal{F}"}.
// Macros whose body references a #1/#2/#3 positional argument are skipped:
// supporting those would need real TeX argument awareness this extractor
// does not have.
func ExtractLaTeXMacros(content string) map[string]string {
	if content == "" {
		return map[string]string{}
	}

	searchRegion := content
	if docStart := strings.Index(content, `\begin{document}`); docStart != -1 {
		searchRegion = content[:docStart]
	}

	macros := make(map[string]string)
	for _, pattern := range macroPatterns {
		nameIdx := pattern.SubexpIndex("name")
		bodyIdx := pattern.SubexpIndex("body")
		for _, m := range pattern.FindAllStringSubmatch(searchRegion, -1) {
			name := m[nameIdx]
			body := strings.TrimSpace(m[bodyIdx])
			if name == "" || body == "" {
				continue
			}
			if strings.Contains(body, "#1") || strings.Contains(body, "#2") || strings.Contains(body, "#3") {
				continue
			}
			macros[name] = body
		}
	}
	return macros
}
