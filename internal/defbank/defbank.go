// Package defbank implements C4, the definition bank: a concurrency-safe
// store mapping canonicalized terms to their definitions, aliases, and
// compositional dependencies, shared by the document enhancer (C5).
package defbank

import (
	"regexp"
	"strings"
	"sync"

	"arxitex/internal/types"
)

// Bank is the working memory of all definitions discovered so far for one
// paper. All access is serialized by a single mutex, matching the upstream
// asyncio.Lock: Go goroutines calling Register/Find concurrently from the
// enhancer's worker pool see a consistent view.
type Bank struct {
	mu          sync.Mutex
	definitions map[string]*types.Definition // canonical term -> definition
	aliasMap    map[string]string            // canonical alias -> canonical term
}

func New() *Bank {
	return &Bank{
		definitions: make(map[string]*types.Definition),
		aliasMap:    make(map[string]string),
	}
}

var trailingParenPattern = regexp.MustCompile(`\s*\([^)]*\)$`)

// NormalizeTerm converts a term into its canonical key form: strips
// whitespace, a single trailing parenthetical, math delimiters ($...$,
// \(...\)), and braces; strips a leading backslash (e.g. from \varphi);
// and lowercases multi-character terms while preserving the case of short
// ones (so 'f' and 'F' remain distinct single-letter variables).
func NormalizeTerm(term string) string {
	canonical := strings.TrimSpace(term)
	canonical = strings.TrimSpace(trailingParenPattern.ReplaceAllString(canonical, ""))

	for {
		stripped := false
		if strings.HasPrefix(canonical, "$") && strings.HasSuffix(canonical, "$") && len(canonical) > 1 {
			canonical = strings.TrimSpace(canonical[1 : len(canonical)-1])
			stripped = true
		}
		if strings.HasPrefix(canonical, "{") && strings.HasSuffix(canonical, "}") {
			canonical = canonical[1 : len(canonical)-1]
			stripped = true
		}
		if strings.HasPrefix(canonical, `\(`) && strings.HasSuffix(canonical, `\)`) {
			canonical = strings.TrimSpace(canonical[2 : len(canonical)-2])
			stripped = true
		}
		if !stripped {
			break
		}
	}

	core := canonical
	if strings.HasPrefix(core, `\`) {
		core = core[1:]
	}

	if len(core) < 5 {
		return core
	}
	return strings.ToLower(core)
}

// Register adds or updates a definition under its canonical term, indexing
// its aliases.
func (b *Bank) Register(def *types.Definition) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registerLocked(def)
}

func (b *Bank) registerLocked(def *types.Definition) {
	canonical := NormalizeTerm(def.Term)
	b.definitions[canonical] = def
	for _, alias := range def.Aliases {
		canonicalAlias := NormalizeTerm(alias)
		if canonicalAlias != canonical {
			b.aliasMap[canonicalAlias] = canonical
		}
	}
}

// Find looks up a term by its canonical form, or its canonical alias.
func (b *Bank) Find(term string) (*types.Definition, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.findLocked(term)
}

func (b *Bank) findLocked(term string) (*types.Definition, bool) {
	canonical := NormalizeTerm(term)
	if def, ok := b.definitions[canonical]; ok {
		return def, true
	}
	if primary, ok := b.aliasMap[canonical]; ok {
		return b.definitions[primary], true
	}
	return nil, false
}

// FindMany looks up a list of terms, skipping duplicates (by canonical
// term) and terms with no registered definition.
func (b *Bank) FindMany(terms []string) []*types.Definition {
	b.mu.Lock()
	defer b.mu.Unlock()

	var found []*types.Definition
	seen := make(map[string]bool)
	for _, term := range terms {
		def, ok := b.findLocked(term)
		if !ok {
			continue
		}
		key := NormalizeTerm(def.Term)
		if seen[key] {
			continue
		}
		seen[key] = true
		found = append(found, def)
	}
	return found
}

// ToDict exports a snapshot of the bank, keyed by canonical term, suitable
// for JSON export and persistence.
func (b *Bank) ToDict() map[string]*types.Definition {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]*types.Definition, len(b.definitions))
	for k, v := range b.definitions {
		out[k] = v
	}
	return out
}

// CanonicalSearchString transforms text into a delimiter-free canonical
// form for robust substring searching: strips '$', pads punctuation with
// spaces so it never fuses with an adjacent word, and collapses whitespace.
var canonicalPunctuation = regexp.MustCompile(`([\[\]\(\)\{\},=+\-*/<>:])`)

func CanonicalSearchString(text string) string {
	text = strings.ReplaceAll(text, "$", "")
	text = canonicalPunctuation.ReplaceAllString(text, " $1 ")
	return strings.TrimSpace(whitespaceRunDefbank.ReplaceAllString(text, " "))
}

var whitespaceRunDefbank = regexp.MustCompile(`\s+`)
