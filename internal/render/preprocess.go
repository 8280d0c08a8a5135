package render

import (
	"regexp"
	"strings"
)

// timestampPattern matches the {ts}hh:mm:ss.ms{/ts} markers left in transcripts.
var timestampPattern = regexp.MustCompile(`\{ts\}[\d:.]+\{/ts\}`)

// blockMathPattern matches $$...$$ across lines, shortest first.
var blockMathPattern = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)

// markdownSpecials are escaped inside math so the markdown parser leaves
// the TeX source intact for KaTeX.
const markdownSpecials = "\\`*_{}[]()#+-!.|>~<"

// Preprocess prepares transcript markdown for rendering.
func Preprocess(md string) string {
	md = StripTimestamps(md)
	return EscapeMath(md)
}

// StripTimestamps removes {ts}...{/ts} markers.
func StripTimestamps(md string) string {
	return timestampPattern.ReplaceAllString(md, "")
}

// EscapeMath backslash-escapes markdown specials inside $$...$$ blocks and
// single-line $...$ spans. Block math is handled first.
func EscapeMath(md string) string {
	md = blockMathPattern.ReplaceAllStringFunc(md, func(m string) string {
		return "$$" + escapeMarkdown(m[2:len(m)-2]) + "$$"
	})
	return escapeInlineMath(md)
}

// escapeInlineMath handles $...$ where neither delimiter touches another '$'
// and the span stays on one line.
func escapeInlineMath(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		if s[i] != '$' || (i > 0 && s[i-1] == '$') {
			b.WriteByte(s[i])
			i++
			continue
		}

		end := -1
		for j := i + 1; j < len(s); j++ {
			if s[j] == '\n' {
				break
			}
			if s[j] == '$' {
				if j > i+1 && (j+1 >= len(s) || s[j+1] != '$') {
					end = j
				}
				break
			}
		}
		if end < 0 {
			b.WriteByte(s[i])
			i++
			continue
		}

		b.WriteByte('$')
		b.WriteString(escapeMarkdown(s[i+1 : end]))
		b.WriteByte('$')
		i = end + 1
	}
	return b.String()
}

func escapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	for _, r := range s {
		if strings.ContainsRune(markdownSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
