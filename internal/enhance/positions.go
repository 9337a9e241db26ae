package enhance

import (
	"strings"

	"arxitex/internal/types"
)

// calculateStartPositions precomputes the byte offset of each artifact's
// start within latexContent, from its 1-based (line, col) position.
func calculateStartPositions(artifacts []*types.Artifact, latexContent string) map[string]int {
	lineStartOffsets := []int{0}
	offset := 0
	for {
		idx := strings.IndexByte(latexContent[offset:], '\n')
		if idx == -1 {
			break
		}
		offset += idx + 1
		lineStartOffsets = append(lineStartOffsets, offset)
	}

	positions := make(map[string]int, len(artifacts))
	for _, a := range artifacts {
		if !a.HasPosition {
			continue
		}
		startLineIndex := a.Position.LineStart - 1
		if startLineIndex < 0 || startLineIndex >= len(lineStartOffsets) {
			continue
		}
		positions[a.ID] = lineStartOffsets[startLineIndex] + (a.Position.ColStart - 1)
	}
	return positions
}

// calculateEndPositions precomputes the byte offset of each artifact's end
// within latexContent, from its 1-based (line, col) position.
func calculateEndPositions(artifacts []*types.Artifact, latexContent string) map[string]int {
	lines := splitKeepEnds(latexContent)

	positions := make(map[string]int, len(artifacts))
	for _, a := range artifacts {
		if !a.HasPosition {
			continue
		}
		endLineIndex := a.Position.LineEnd - 1
		if endLineIndex < 0 || endLineIndex > len(lines) {
			continue
		}
		offset := 0
		for _, l := range lines[:endLineIndex] {
			offset += len(l)
		}
		positions[a.ID] = offset + (a.Position.ColEnd - 1)
	}
	return positions
}

// splitKeepEnds splits s into lines, retaining each line's trailing '\n'
// (mirroring Python's str.splitlines(keepends=True) for '\n'-terminated text).
func splitKeepEnds(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
