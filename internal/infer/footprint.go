package infer

import (
	"regexp"

	"arxitex/internal/defbank"
)

var subwordTokenPattern = regexp.MustCompile(`[a-zA-Z0-9_]+|\\?[a-zA-Z@]+`)

// tokenSet splits a term into its component words, the same way a human
// would read "union closed" as two tokens and "\varphi" as one.
func tokenSet(term string) map[string]struct{} {
	tokens := subwordTokenPattern.FindAllString(term, -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// isSubwordOf reports whether termA's token set is a proper, non-empty
// subset of termB's: e.g. "union closed" is a subword of "approximate
// union closed".
func isSubwordOf(termA, termB string) bool {
	if termA == termB {
		return false
	}
	a, b := tokenSet(termA), tokenSet(termB)
	if len(a) == 0 || len(a) >= len(b) {
		return false
	}
	for t := range a {
		if _, ok := b[t]; !ok {
			return false
		}
	}
	return true
}

func footprintsDisjoint(a, b map[string]struct{}) bool {
	for t := range a {
		if _, ok := b[t]; ok {
			return false
		}
	}
	return true
}

func subwordLinkExists(a, b map[string]struct{}) bool {
	for termA := range a {
		for termB := range b {
			if isSubwordOf(termA, termB) || isSubwordOf(termB, termA) {
				return true
			}
		}
	}
	return false
}

// buildConceptualFootprint computes an artifact's conceptual footprint: its
// direct terms, plus every term those terms' bank definitions depend on.
func buildConceptualFootprint(directTerms []string, bank *defbank.Bank) map[string]struct{} {
	footprint := make(map[string]struct{}, len(directTerms))
	for _, t := range directTerms {
		footprint[t] = struct{}{}
	}
	if bank == nil {
		return footprint
	}
	for _, t := range directTerms {
		def, ok := bank.Find(t)
		if !ok {
			continue
		}
		for _, dep := range def.Dependencies {
			footprint[dep] = struct{}{}
		}
	}
	return footprint
}
