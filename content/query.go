package content

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Default result sizes used when callers pass n <= 0 to the capped views.
const (
	DefaultFeatured = 3
	DefaultLatest   = 12
	DefaultRelated  = 4
)

// Source is the read side of a Store. PostCache and every Store satisfy it.
type Source interface {
	List(ctx context.Context) ([]Post, error)
	Get(ctx context.Context, slug string) (Post, error)
}

// Query derives the public views of the site from a Source. Failures in the
// source are logged and read as empty results.
type Query struct {
	src Source
	now func() time.Time
	log *zap.Logger
}

// QueryOption configures a Query.
type QueryOption func(*Query)

// WithClock overrides the time used to decide what is published.
func WithClock(now func() time.Time) QueryOption {
	return func(q *Query) {
		q.now = now
	}
}

// WithLogger sets the logger used to report degraded reads.
func WithLogger(l *zap.Logger) QueryOption {
	return func(q *Query) {
		q.log = l
	}
}

// NewQuery returns a Query over src.
func NewQuery(src Source, opts ...QueryOption) *Query {
	q := &Query{src: src, now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Query) all(ctx context.Context) []Post {
	posts, err := q.src.List(ctx)
	if err != nil {
		q.log.Warn("content source unavailable, serving empty list", zap.Error(err))
		return nil
	}
	return SortByPublishDesc(posts)
}

// IncludingDrafts returns every post, newest first.
func (q *Query) IncludingDrafts(ctx context.Context) []Post {
	return q.all(ctx)
}

// Published returns posts whose publish time has passed, newest first.
// Posts with equal publish times keep the source order.
func (q *Query) Published(ctx context.Context) []Post {
	return FilterPublished(q.all(ctx), q.now())
}

// Post returns a published post by slug.
func (q *Query) Post(ctx context.Context, slug string) (Post, bool) {
	p, ok := q.Lookup(ctx, slug)
	if !ok || !p.IsPublished(q.now()) {
		return Post{}, false
	}
	return p, true
}

// Lookup returns a post by slug whether or not it is published.
func (q *Query) Lookup(ctx context.Context, slug string) (Post, bool) {
	p, err := q.src.Get(ctx, slug)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			q.log.Warn("content lookup failed", zap.String("slug", slug), zap.Error(err))
		}
		return Post{}, false
	}
	return p, true
}

// Featured returns the newest n published posts flagged as featured.
func (q *Query) Featured(ctx context.Context, n int) []Post {
	if n <= 0 {
		n = DefaultFeatured
	}
	var out []Post
	for _, p := range q.Published(ctx) {
		if p.Featured {
			out = append(out, p)
		}
	}
	return limit(out, n)
}

// Latest returns the newest n published posts.
func (q *Query) Latest(ctx context.Context, n int) []Post {
	if n <= 0 {
		n = DefaultLatest
	}
	return limit(q.Published(ctx), n)
}

// ByCategory returns published posts in the category, matched case
// insensitively. n <= 0 means no cap.
func (q *Query) ByCategory(ctx context.Context, category string, n int) []Post {
	var out []Post
	for _, p := range q.Published(ctx) {
		if containsFold(p.Categories, category) {
			out = append(out, p)
		}
	}
	if n > 0 {
		return limit(out, n)
	}
	return out
}

// ByTag returns published posts carrying tag, matched case insensitively.
func (q *Query) ByTag(ctx context.Context, tag string) []Post {
	var out []Post
	for _, p := range q.Published(ctx) {
		if containsFold(p.Tags, tag) {
			out = append(out, p)
		}
	}
	return out
}

// ByAuthor returns published posts whose author slug equals authorSlug.
func (q *Query) ByAuthor(ctx context.Context, authorSlug string) []Post {
	var out []Post
	for _, p := range q.Published(ctx) {
		if p.Author == authorSlug {
			out = append(out, p)
		}
	}
	return out
}

// Related returns up to n published posts other than post that share at
// least one category with it, in publish order.
func (q *Query) Related(ctx context.Context, post Post, n int) []Post {
	if n <= 0 {
		n = DefaultRelated
	}
	return limit(FilterRelated(post, q.Published(ctx)), n)
}

// Search returns published posts whose title, excerpt, tags or categories
// contain query, case insensitively. An empty query matches nothing.
func (q *Query) Search(ctx context.Context, query string) []Post {
	return FilterSearch(q.Published(ctx), query)
}

// Tags returns the distinct lower-cased tags of published posts, sorted.
func (q *Query) Tags(ctx context.Context) []string {
	set := make(map[string]struct{})
	for _, p := range q.Published(ctx) {
		for _, t := range p.Tags {
			if t = normalizeTerm(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Slugs returns the slug of every post, drafts included.
func (q *Query) Slugs(ctx context.Context) []string {
	posts := q.all(ctx)
	slugs := make([]string, len(posts))
	for i, p := range posts {
		slugs[i] = p.Slug
	}
	return slugs
}

// SortByPublishDesc returns a copy of posts ordered newest first. The sort is
// stable so equal timestamps keep their input order.
func SortByPublishDesc(posts []Post) []Post {
	out := make([]Post, len(posts))
	copy(out, posts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishAt.After(out[j].PublishAt)
	})
	return out
}

// FilterPublished keeps posts that are public at now, preserving order.
func FilterPublished(posts []Post, now time.Time) []Post {
	var out []Post
	for _, p := range posts {
		if p.IsPublished(now) {
			out = append(out, p)
		}
	}
	return out
}

// FilterRelated finds posts that share at least one category with current.
func FilterRelated(current Post, posts []Post) []Post {
	cats := make(map[string]struct{}, len(current.Categories))
	for _, c := range current.Categories {
		if c = normalizeTerm(c); c != "" {
			cats[c] = struct{}{}
		}
	}
	var related []Post
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		for _, c := range p.Categories {
			if _, ok := cats[normalizeTerm(c)]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

// FilterSearch is the substring filter behind Query.Search.
func FilterSearch(posts []Post, query string) []Post {
	needle := normalizeTerm(query)
	if needle == "" {
		return nil
	}
	var out []Post
	for _, p := range posts {
		if matches(p, needle) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p Post, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Excerpt), needle) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	for _, c := range p.Categories {
		if strings.Contains(strings.ToLower(c), needle) {
			return true
		}
	}
	return false
}

// TagFromSlug turns a tag URL segment back into the tag it was built from.
func TagFromSlug(slug string) string {
	return strings.ReplaceAll(slug, "-", " ")
}

// TagSlug is the URL segment for tag.
func TagSlug(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), "-")
}

func containsFold(vals []string, want string) bool {
	want = normalizeTerm(want)
	for _, v := range vals {
		if normalizeTerm(v) == want {
			return true
		}
	}
	return false
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func limit(posts []Post, n int) []Post {
	if len(posts) > n {
		return posts[:n]
	}
	return posts
}
