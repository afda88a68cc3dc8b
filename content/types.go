// Package content holds the article model, the content stores that persist it,
// and the query layer that derives the public views of the site from them.
package content

import (
	"math"
	"strings"
	"time"
)

const (
	// DefaultCoverImage is used when a post has no cover image.
	DefaultCoverImage = "/images/placeholder.jpg"

	wordsPerMinute = 200
)

// Post is a single article. Published status is derived from PublishAt and
// ReadTime is recomputed from Content on every read.
type Post struct {
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Excerpt         string    `json:"excerpt"`
	Deck            string    `json:"deck,omitempty"`
	CoverImage      string    `json:"coverImage"`
	CoverImageAlt   string    `json:"coverImageAlt,omitempty"`
	Categories      []string  `json:"categories"`
	Tags            []string  `json:"tags"`
	Author          string    `json:"author"`
	PublishAt       time.Time `json:"publishAt"`
	Featured        bool      `json:"featured,omitempty"`
	Symbol          string    `json:"symbol,omitempty"`
	MetaTitle       string    `json:"metaTitle,omitempty"`
	MetaDescription string    `json:"metaDescription,omitempty"`
	OGImage         string    `json:"ogImage,omitempty"`
	ReadTime        int       `json:"readTime"`
	Content         string    `json:"content"`
	UpdatedAt       time.Time `json:"updatedAt,omitzero"`
}

// Status is the lifecycle state of a post relative to a point in time.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
)

// IsPublished reports whether the post is public at now.
func (p Post) IsPublished(now time.Time) bool {
	return !p.PublishAt.IsZero() && !p.PublishAt.After(now)
}

// Status reports draft for posts without a publish time, scheduled for
// future ones and published otherwise.
func (p Post) Status(now time.Time) Status {
	switch {
	case p.PublishAt.IsZero():
		return StatusDraft
	case p.PublishAt.After(now):
		return StatusScheduled
	default:
		return StatusPublished
	}
}

// Link is the public path of the post.
func (p Post) Link() string {
	return "/post/" + p.Slug + "/"
}

// WithoutContent returns a copy with the body stripped, for listings.
func (p Post) WithoutContent() Post {
	p.Content = ""
	return p
}

// Author is a static byline loaded from JSON.
type Author struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
	Twitter  string `json:"twitter,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Category is a static section of the site loaded from JSON.
type Category struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Accent      string `json:"accent"`
}

// MarketQuote is the ticker row shape. Nothing in this module produces quotes;
// the type exists so templates can share it.
type MarketQuote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Currency      string  `json:"currency,omitempty"`
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// ReadTime returns the reading time in minutes at 200 words per minute,
// rounded up.
func ReadTime(body string) int {
	return int(math.Ceil(float64(WordCount(body)) / wordsPerMinute))
}

// normalize fills derived and defaulted fields after a post is decoded.
func normalize(p *Post) {
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.CoverImage == "" {
		p.CoverImage = DefaultCoverImage
	}
	if p.CoverImageAlt == "" {
		p.CoverImageAlt = p.Title
	}
	p.ReadTime = ReadTime(p.Content)
}
