package defbank

import (
	"strings"

	"arxitex/internal/types"
)

// ResolveInternalDependencies scans every definition's text for the
// presence of every other registered term and records a compositional
// dependency when found, so "abelian group" records a dependency on
// "group" once both are in the bank.
func (b *Bank) ResolveInternalDependencies() {
	b.mu.Lock()
	defer b.mu.Unlock()

	defs := make([]*types.Definition, 0, len(b.definitions))
	for _, d := range b.definitions {
		defs = append(defs, d)
	}

	for _, def := range defs {
		canonicalText := " " + CanonicalSearchString(def.DefinitionText) + " "

		for _, candidate := range defs {
			if candidate.Term == def.Term {
				continue
			}
			if hasTerm(def.Dependencies, candidate.Term) {
				continue
			}
			canonicalDep := CanonicalSearchString(candidate.Term)
			if canonicalDep == "" {
				continue
			}
			if strings.Contains(canonicalText, " "+canonicalDep+" ") {
				def.Dependencies = append(def.Dependencies, candidate.Term)
			}
		}
	}
}

func hasTerm(terms []string, term string) bool {
	for _, t := range terms {
		if t == term {
			return true
		}
	}
	return false
}
