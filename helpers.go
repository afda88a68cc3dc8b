package newsdesk

import (
	"strings"

	"github.com/eringen/newsdesk/content"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// summaries drops post bodies for list pages.
func summaries(posts []content.Post) []content.Post {
	out := make([]content.Post, len(posts))
	for i, p := range posts {
		out[i] = p.WithoutContent()
	}
	return out
}
