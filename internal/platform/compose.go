package platform

import (
	"strings"
)

const ellipsis = "…"

// ComposeStatus renders a post as plain text within maxChars runes:
// title, excerpt, and the canonical article URL separated by blank lines.
// The URL is never truncated; the excerpt gives way first, then the title.
func ComposeStatus(post Post, maxChars int) string {
	title := strings.TrimSpace(post.Title)
	excerpt := strings.TrimSpace(post.Excerpt)
	url := strings.TrimSpace(post.URL)

	sep := "\n\n"
	budget := maxChars - len([]rune(url))
	if url != "" {
		budget -= len([]rune(sep))
	}

	head := title
	if excerpt != "" {
		head = title + sep + excerpt
	}
	head = truncateRunes(head, budget)

	if url == "" {
		return head
	}
	if head == "" {
		return url
	}
	return head + sep + url
}

// truncateRunes shortens s to at most max runes, appending an ellipsis
// when anything was cut. A non-positive max yields an empty string.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := strings.TrimSpace(string(runes[:max-1]))
	return cut + ellipsis
}
