package defbank

import "sort"

// MergeRedundancies finds definitions that share identical definition text
// and merges them: the term with the shortest name becomes the primary
// entry, and every other term/alias in the group becomes an alias of it.
func (b *Bank) MergeRedundancies() {
	b.mu.Lock()
	defer b.mu.Unlock()

	byText := make(map[string][]string) // definition text -> canonical terms, in map iteration order
	for canonical, def := range b.definitions {
		if def.DefinitionText == "" {
			continue
		}
		byText[def.DefinitionText] = append(byText[def.DefinitionText], canonical)
	}

	toRemove := make(map[string]bool)
	for _, group := range byText {
		if len(group) <= 1 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return len(b.definitions[group[i]].Term) < len(b.definitions[group[j]].Term)
		})

		primary := b.definitions[group[0]]
		aliasSet := make(map[string]bool)
		for _, a := range primary.Aliases {
			aliasSet[a] = true
		}

		for _, canonical := range group[1:] {
			redundant := b.definitions[canonical]
			aliasSet[redundant.Term] = true
			for _, a := range redundant.Aliases {
				aliasSet[a] = true
			}
			toRemove[NormalizeTerm(redundant.Term)] = true
		}
		delete(aliasSet, primary.Term)

		merged := make([]string, 0, len(aliasSet))
		for a := range aliasSet {
			merged = append(merged, a)
		}
		sort.Strings(merged)
		primary.Aliases = merged
	}

	if len(toRemove) == 0 {
		return
	}
	for k := range toRemove {
		delete(b.definitions, k)
	}
	b.aliasMap = make(map[string]string)
	for canonical, def := range b.definitions {
		for _, alias := range def.Aliases {
			b.aliasMap[NormalizeTerm(alias)] = canonical
		}
	}
}
