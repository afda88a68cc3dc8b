// Package views holds the page models handed to user supplied templ
// components. Each model also serves as the JSON body when a page has no
// component registered.
package views

import "github.com/eringen/newsdesk/content"

// SiteConfig holds site-wide settings every page needs.
type SiteConfig struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`    // canonical + og:url
	OGType      string `json:"ogType"` // "website" or "article"
	Image       string `json:"image,omitempty"`
}

// CategoryStrip is one category block on the home page.
type CategoryStrip struct {
	Category content.Category `json:"category"`
	Posts    []content.Post   `json:"posts"`
}

// HomePage is the front page: featured stories, the latest feed and a strip
// per category that has posts.
type HomePage struct {
	Site       SiteConfig         `json:"site"`
	Meta       PageMeta           `json:"meta"`
	Featured   []content.Post     `json:"featured"`
	Latest     []content.Post     `json:"latest"`
	Strips     []CategoryStrip    `json:"strips"`
	Categories []content.Category `json:"categories"`
}

// CategoryPage lists the published posts of one category.
type CategoryPage struct {
	Site     SiteConfig       `json:"site"`
	Meta     PageMeta         `json:"meta"`
	Category content.Category `json:"category"`
	Posts    []content.Post   `json:"posts"`
}

// TagPage lists the published posts carrying a tag.
type TagPage struct {
	Site  SiteConfig     `json:"site"`
	Meta  PageMeta       `json:"meta"`
	Tag   string         `json:"tag"`
	Posts []content.Post `json:"posts"`
}

// AuthorPage is an author's profile and published posts.
type AuthorPage struct {
	Site   SiteConfig     `json:"site"`
	Meta   PageMeta       `json:"meta"`
	Author content.Author `json:"author"`
	Posts  []content.Post `json:"posts"`
}

// PostPage is a single article. HTML is the rendered body.
type PostPage struct {
	Site    SiteConfig      `json:"site"`
	Meta    PageMeta        `json:"meta"`
	Post    content.Post    `json:"post"`
	HTML    string          `json:"html"`
	Author  *content.Author `json:"author"`
	Related []content.Post  `json:"related"`
}

// SearchPage holds the results for a search query.
type SearchPage struct {
	Site    SiteConfig     `json:"site"`
	Meta    PageMeta       `json:"meta"`
	Query   string         `json:"query"`
	Results []content.Post `json:"results"`
}
