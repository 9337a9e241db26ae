package extract

import (
	"regexp"
	"sort"
	"strings"

	"arxitex/internal/types"
)

// proofSpan is a \begin{proof}...\end{proof} block not consumed as an
// immediately-following proof during pass 1.
type proofSpan struct {
	start       int // byte offset of \begin{proof...}
	end         int // byte offset just past \end{proof...}
	bodyStart   int
	body        string
	optionalArg string // text of \begin{proof}[...] if present
}

var proofOpenPattern = regexp.MustCompile(`\\begin\{proof(\*?)\}(?:\[([^\]]*)\])?`)
var refInTextPattern = regexp.MustCompile(`\\(?:[cC]ref|[vV]ref|[Aa]utoref|ref)\s*\{([^}]+)\}`)

// findDetachedProofSpans scans the whole document for proof environments,
// skipping byte ranges already consumed as an immediately-following proof.
func (p *envParser) findDetachedProofSpans() []proofSpan {
	var spans []proofSpan
	cursor := 0
	for cursor < len(p.content) {
		loc := proofOpenPattern.FindStringSubmatchIndex(p.content[cursor:])
		if loc == nil {
			break
		}
		matchStart := cursor + loc[0]
		matchEnd := cursor + loc[1]
		star := p.content[cursor+loc[2] : cursor+loc[3]]
		var optArg string
		if loc[4] != -1 {
			optArg = p.content[cursor+loc[4] : cursor+loc[5]]
		}

		endPos := p.findMatchingEnd(proofEnvType, star, matchEnd)
		if endPos == -1 {
			cursor = matchEnd
			continue
		}
		fullEnd := endPos + len("\\end{"+proofEnvType+star+"}")

		if !overlapsAny(matchStart, fullEnd, p.consumedProofSpans) {
			spans = append(spans, proofSpan{
				start:       matchStart,
				end:         fullEnd,
				bodyStart:   matchEnd,
				body:        strings.TrimSpace(p.content[matchEnd:endPos]),
				optionalArg: optArg,
			})
		}
		cursor = fullEnd
	}
	return spans
}

func overlapsAny(start, end int, spans [][2]int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// linkProofs attaches detached proofs to artifacts in two strategies, in
// order: semantic linking via an explicit \ref{label} in the proof's
// optional argument, then a single proximity sweep over both lists sorted
// by byte offset. Artifacts that already have a proof (from pass 1) are not
// reconsidered.
func linkProofs(nodes []*types.Artifact, labelToNodeID map[string]string, nodeOffsets map[string][2]int, contentLen int, spans []proofSpan) {
	byID := make(map[string]*types.Artifact, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	used := make([]bool, len(spans))

	// Strategy 1: semantic linking via \ref{label} in the optional argument.
	for i := range spans {
		span := &spans[i]
		if span.optionalArg == "" {
			continue
		}
		for _, raw := range refInTextPattern.FindAllStringSubmatch(span.optionalArg, -1) {
			linkedHere := false
			for _, lbl := range strings.Split(raw[1], ",") {
				lbl = strings.TrimSpace(lbl)
				if lbl == "" {
					continue
				}
				nodeID, ok := labelToNodeID[lbl]
				if !ok {
					continue
				}
				node, ok := byID[nodeID]
				if !ok || node.ProofTex != "" {
					continue
				}
				node.ProofTex = span.body
				used[i] = true
				linkedHere = true
				break
			}
			if linkedHere {
				break
			}
		}
	}

	// Strategy 2: proximity linking, a single sweep over nodes and
	// remaining proofs both sorted by start offset.
	sortedNodes := make([]*types.Artifact, len(nodes))
	copy(sortedNodes, nodes)
	sort.SliceStable(sortedNodes, func(i, j int) bool {
		return nodeOffsets[sortedNodes[i].ID][0] < nodeOffsets[sortedNodes[j].ID][0]
	})

	type indexedSpan struct {
		proofSpan
		idx int
	}
	var sortedProofs []indexedSpan
	for i, span := range spans {
		sortedProofs = append(sortedProofs, indexedSpan{span, i})
	}
	sort.SliceStable(sortedProofs, func(i, j int) bool { return sortedProofs[i].start < sortedProofs[j].start })

	pIdx := 0
	for i, node := range sortedNodes {
		if node.ProofTex != "" {
			continue
		}
		nodeEnd := nodeOffsets[node.ID][1]
		nextNodeStart := contentLen
		if i+1 < len(sortedNodes) {
			nextNodeStart = nodeOffsets[sortedNodes[i+1].ID][0]
		}

		for pIdx < len(sortedProofs) && sortedProofs[pIdx].start <= nodeEnd {
			pIdx++
		}
		if pIdx >= len(sortedProofs) {
			break
		}

		cand := sortedProofs[pIdx]
		if used[cand.idx] || cand.optionalArg != "" {
			continue
		}
		if nodeEnd < cand.start && cand.start < nextNodeStart {
			node.ProofTex = cand.body
			used[cand.idx] = true
		}
	}
}
