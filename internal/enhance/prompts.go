package enhance

import (
	"strings"
	"text/template"

	"arxitex/internal/types"
)

var (
	extractDefinitionTmpl = template.Must(template.New("extract_definition").Parse(
		`Extract the single term this artifact defines, its definition text, and any aliases.

Artifact content:
---
{{.Content}}
---
Respond as JSON matching {"defined_term": string, "definition_text": string, "aliases": [string]}.`))

	extractTermsTmpl = template.Must(template.New("extract_terms").Parse(
		`List every mathematical term used in the content below that a reader would need defined to follow it. Exclude common words.

Content:
---
{{.Content}}
---
Respond as JSON matching {"terms": [string]}.`))

	synthesizeDefinitionTmpl = template.Must(template.New("synthesize_definition").Parse(
		`Using only the context below, write a self-contained definition of the term "{{.Term}}".
{{if .BaseDefinition}}A related term "{{.BaseDefinition.Term}}" is already defined as: {{.BaseDefinition.DefinitionText}}
{{end}}
Context:
---
{{.Context}}
---
If the context does not contain enough information to define "{{.Term}}", set context_was_sufficient to false.
Respond as JSON matching {"context_was_sufficient": bool, "definition": string|null}.`))
)

func renderTemplate(tmpl *template.Template, data interface{}) string {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}

func extractDefinitionPrompt(content string) string {
	return renderTemplate(extractDefinitionTmpl, struct{ Content string }{content})
}

func extractTermsPrompt(content string) string {
	return renderTemplate(extractTermsTmpl, struct{ Content string }{content})
}

func synthesizeDefinitionPrompt(term, context string, base *types.Definition) string {
	return renderTemplate(synthesizeDefinitionTmpl, struct {
		Term           string
		Context        string
		BaseDefinition *types.Definition
	}{term, context, base})
}
