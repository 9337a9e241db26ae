package defbank

import (
	"strings"

	"arxitex/internal/types"
)

// FindBestBaseDefinition finds the most specific already-known definition
// that a new, more specialized term should declare as its base: first an
// exact trailing sub-phrase match (e.g. "abelian group" -> "group"), then a
// one-word-different parameterized match (e.g. "p-group" ~ "q-group"),
// preferring the longest known term on ties.
func (b *Bank) FindBestBaseDefinition(term string) (*types.Definition, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	newParts := strings.Fields(NormalizeTerm(term))

	// Step 1: exact sub-phrase matching, trying shorter and shorter
	// trailing phrases.
	if len(newParts) > 1 {
		for i := 1; i < len(newParts); i++ {
			subPhrase := strings.Join(newParts[i:], " ")
			if def, ok := b.findLocked(subPhrase); ok {
				return def, true
			}
		}
	}

	// Step 2: parameterized matching — a known multi-word term differing
	// from a same-length window of the new term's words in exactly one
	// position.
	var best *types.Definition
	maxMatchLen := 0
	for knownCanonical, def := range b.definitions {
		knownParts := strings.Fields(knownCanonical)
		k := len(knownParts)
		if k <= 1 || k > len(newParts) {
			continue
		}
		for i := 0; i+k <= len(newParts); i++ {
			diff := 0
			for j := 0; j < k; j++ {
				if knownParts[j] != newParts[i+j] {
					diff++
				}
			}
			if diff == 1 && len(knownCanonical) > maxMatchLen {
				maxMatchLen = len(knownCanonical)
				best = def
				break
			}
		}
	}
	if best != nil {
		return best, true
	}
	return nil, false
}
