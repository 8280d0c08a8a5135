package search

import (
	"fmt"
	"strings"
)

// FormatHits renders hits as plain text for terminals and MCP clients.
func FormatHits(hits []Hit) string {
	if len(hits) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(&sb, "\n--- Result %d (similarity: %.1f%%) ---\n", i+1, h.Similarity*100)
		fmt.Fprintf(&sb, "Lecture: %s (%s)\n", h.LectureName, h.LectureID)
		fmt.Fprintf(&sb, "Section: %d. %s (#%s)\n", h.Index, h.Heading, h.Anchor)
		sb.WriteString("\n")
		sb.WriteString(h.Snippet)
		sb.WriteString("\n")
	}
	return sb.String()
}
