package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"arxitex/internal/types"
)

// titleKeywords maps a keyword found in a \newtheorem title to the
// canonical artifact type it implies. Order matters: the first keyword
// contained in the (lowercased) title wins.
var titleKeywords = []struct {
	keyword string
	typ     string
}{
	{"theorem", "theorem"},
	{"lemma", "lemma"},
	{"proposition", "proposition"},
	{"corollary", "corollary"},
	{"definition", "definition"},
	{"remark", "remark"},
	{"example", "example"},
	{"claim", "claim"},
	{"observation", "observation"},
	{"conjecture", "conjecture"},
	{"fact", "fact"},
}

var newtheoremPattern = regexp.MustCompile(`\\newtheorem\s*\{([^}]+)\}\s*(?:\[[^\]]+\])?\s*\{([^}]+)\}`)

// discoverEnvironments scans \newtheorem declarations and returns a mapping
// from environment name to canonical artifact type. The first declaration of
// a given environment name wins; titles that match no keyword are skipped.
func discoverEnvironments(content string) map[string]string {
	aliases := make(map[string]string)
	for _, m := range newtheoremPattern.FindAllStringSubmatch(content, -1) {
		envName := strings.TrimSpace(m[1])
		title := strings.ToLower(strings.TrimSpace(m[2]))

		var canonical string
		for _, kw := range titleKeywords {
			if strings.Contains(title, kw.keyword) {
				canonical = kw.typ
				break
			}
		}
		if canonical == "" {
			continue
		}
		if _, seen := aliases[envName]; !seen {
			aliases[envName] = canonical
		}
	}
	return aliases
}

const proofEnvType = "proof"

var labelPattern = regexp.MustCompile(`\\label\s*\{([^}]+)\}`)

// envParser performs pass 1: scanning the combined content for known
// artifact environments, pairing each with an immediately-following proof
// when present, and recording label -> node id ownership.
type envParser struct {
	content       string
	envTypeOf     map[string]types.ArtifactType // lowercase env name -> canonical type
	labelToNodeID map[string]string

	// consumedProofSpans records the [start,end) byte ranges of proof
	// environments already attached during pass 1, so the detached-proof
	// linker does not re-discover and double-link them.
	consumedProofSpans [][2]int

	// nodeOffsets records each artifact's [start,end) byte offsets in the
	// combined content, keyed by node id, for the proximity proof linker.
	nodeOffsets map[string][2]int
}

func newEnvParser(content string, discovered map[string]string) *envParser {
	envTypeOf := make(map[string]types.ArtifactType, len(types.BaseArtifactTypes)+len(discovered))
	for _, t := range types.BaseArtifactTypes {
		envTypeOf[string(t)] = t
	}
	for env, canonical := range discovered {
		envTypeOf[strings.ToLower(env)] = types.ArtifactType(canonical)
	}
	return &envParser{
		content:       content,
		envTypeOf:     envTypeOf,
		labelToNodeID: make(map[string]string),
		nodeOffsets:   make(map[string][2]int),
	}
}

// parse runs pass 1 and returns the artifacts discovered, in document order.
// proofless artifacts still followed by a detached proof elsewhere are left
// for the proof linker; artifacts with an immediately-following proof have
// it attached here already.
func (p *envParser) parse() []*types.Artifact {
	envNames := make([]string, 0, len(p.envTypeOf))
	for name := range p.envTypeOf {
		envNames = append(envNames, regexp.QuoteMeta(name))
	}
	// Longest names first so e.g. "claimx" isn't shadowed by a prefix match
	// of "claim" (the alternation tries options left to right).
	sort.Slice(envNames, func(i, j int) bool { return len(envNames[i]) > len(envNames[j]) })
	beginPattern := regexp.MustCompile(`\\begin\{(` + strings.Join(envNames, "|") + `)(\*?)\}`)

	var nodes []*types.Artifact
	counter := 0
	cursor := 0
	for cursor < len(p.content) {
		loc := beginPattern.FindStringSubmatchIndex(p.content[cursor:])
		if loc == nil {
			break
		}
		matchStart := cursor + loc[0]
		matchEnd := cursor + loc[1]
		envType := strings.ToLower(p.content[cursor+loc[2] : cursor+loc[3]])
		star := p.content[cursor+loc[4] : cursor+loc[5]]

		blockStart := matchEnd
		endTagPos := p.findMatchingEnd(envType, star, blockStart)
		if endTagPos == -1 {
			cursor = matchEnd
			continue
		}

		nextCursor := endTagPos + len(fmt.Sprintf(`\end{%s%s}`, envType, star))
		rawContent := strings.TrimSpace(p.content[blockStart:endTagPos])

		proofContent, hasProof, afterProof := p.extractFollowingProof(nextCursor)
		if hasProof {
			nextCursor = afterProof
		}

		counter++
		nodeID := fmt.Sprintf("%s-%d-%s", envType, counter, uuid.New().String()[:6])
		label := p.extractLabel(rawContent)
		if label != "" {
			p.labelToNodeID[label] = nodeID
		}
		p.nodeOffsets[nodeID] = [2]int{matchStart, endTagPos}

		node := &types.Artifact{
			ID:          nodeID,
			Type:        p.envTypeOf[envType],
			Label:       label,
			ContentTex:  rawContent,
			ProofTex:    proofContent,
			Position:    p.calculatePosition(matchStart, endTagPos),
			HasPosition: true,
		}
		nodes = append(nodes, node)
		cursor = nextCursor
	}
	return nodes
}

// findMatchingEnd locates the \end{env} tag matching the \begin{env} whose
// body starts at startPos, tracking nesting depth for repeated environments.
func (p *envParser) findMatchingEnd(envType, star string, startPos int) int {
	beginTag := fmt.Sprintf(`\begin{%s%s}`, envType, star)
	endTag := fmt.Sprintf(`\end{%s%s}`, envType, star)
	depth := 1
	cursor := startPos

	for depth > 0 {
		nextBegin := strings.Index(p.content[cursor:], beginTag)
		nextEnd := strings.Index(p.content[cursor:], endTag)
		if nextEnd == -1 {
			return -1
		}
		if nextBegin != -1 && nextBegin < nextEnd {
			depth++
			cursor += nextBegin + len(beginTag)
			continue
		}
		depth--
		absEnd := cursor + nextEnd
		if depth == 0 {
			return absEnd
		}
		cursor = absEnd + len(endTag)
	}
	return -1
}

var immediateProofPattern = regexp.MustCompile(`^\s*\\begin\{proof(\*?)\}`)

// extractFollowingProof checks whether a proof environment begins (modulo
// leading whitespace) at startPos, and if so consumes it.
func (p *envParser) extractFollowingProof(startPos int) (content string, ok bool, nextCursor int) {
	loc := immediateProofPattern.FindStringSubmatchIndex(p.content[startPos:])
	if loc == nil {
		return "", false, startPos
	}
	star := p.content[startPos+loc[2] : startPos+loc[3]]
	proofBodyStart := startPos + loc[1]
	proofEnd := p.findMatchingEnd(proofEnvType, star, proofBodyStart)
	if proofEnd == -1 {
		return "", false, startPos
	}
	proofContent := strings.TrimSpace(p.content[proofBodyStart:proofEnd])
	newCursor := proofEnd + len(fmt.Sprintf(`\end{%s%s}`, proofEnvType, star))
	p.consumedProofSpans = append(p.consumedProofSpans, [2]int{startPos + loc[0], newCursor})
	return proofContent, true, newCursor
}

func (p *envParser) extractLabel(content string) string {
	m := labelPattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func (p *envParser) calculatePosition(startOffset, endOffset int) types.Position {
	lineStart := strings.Count(p.content[:startOffset], "\n") + 1
	lineEnd := strings.Count(p.content[:endOffset], "\n") + 1

	colStart := startOffset + 1
	if idx := strings.LastIndex(p.content[:startOffset], "\n"); idx != -1 {
		colStart = startOffset - idx
	}
	colEnd := endOffset + 1
	if idx := strings.LastIndex(p.content[:endOffset], "\n"); idx != -1 {
		colEnd = endOffset - idx
	}

	return types.Position{
		LineStart: lineStart,
		LineEnd:   lineEnd,
		ColStart:  colStart,
		ColEnd:    colEnd,
	}
}
