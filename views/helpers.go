package views

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/eringen/newsdesk/content"
)

// BuildURL joins path segments onto a base URL, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PathEscape wraps url.PathEscape for use in templ expressions.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// CategoryLink is the site path of a category page.
func CategoryLink(slug string) string {
	return "/category/" + PathEscape(slug) + "/"
}

// TagLink is the site path of a tag page.
func TagLink(tag string) string {
	return "/tag/" + PathEscape(content.TagSlug(tag)) + "/"
}

// AuthorLink is the site path of an author page.
func AuthorLink(slug string) string {
	return "/author/" + PathEscape(slug) + "/"
}

// FormatDate renders a publish time the way bylines show it, or "" for a
// draft without a date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006")
}
