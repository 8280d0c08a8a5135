package vectordb

// Snippet shortens content to at most n runes.
func Snippet(content string, n int) string {
	r := []rune(content)
	if len(r) <= n {
		return content
	}
	return string(r[:n]) + "..."
}
