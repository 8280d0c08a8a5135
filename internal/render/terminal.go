package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
)

// TerminalMarkdown assembles a lecture as one markdown document with
// timestamps stripped. Math is left as TeX source.
func TerminalMarkdown(l *catalog.Lecture) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", l.Name)
	if n := len(l.Sections); n > 1 {
		fmt.Fprintf(&b, "> %d sections\n\n", n)
	}
	for _, s := range l.Sections {
		b.WriteString("---\n\n")
		b.WriteString(strings.TrimSpace(StripTimestamps(s.Content)))
		b.WriteString("\n\n")
	}
	return b.String()
}

// WriteTerminal renders a lecture for the terminal using glamour.
func WriteTerminal(w io.Writer, l *catalog.Lecture, width int) error {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	out, err := r.Render(TerminalMarkdown(l))
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}

	_, err = io.WriteString(w, out)
	return err
}
