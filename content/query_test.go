package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var refNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type sliceSource struct {
	posts []Post
	err   error
}

func (s *sliceSource) List(ctx context.Context) ([]Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.posts, nil
}

func (s *sliceSource) Get(ctx context.Context, slug string) (Post, error) {
	if s.err != nil {
		return Post{}, s.err
	}
	for _, p := range s.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

func daysAgo(n int) time.Time {
	return refNow.AddDate(0, 0, -n)
}

func fixturePosts() []Post {
	return []Post{
		{Slug: "spx-record", Title: "S&P 500 Hits Record", Excerpt: "Equities rally.", Categories: []string{"Markets"}, Tags: []string{"Stocks", "SPX"}, Author: "alex-rivera", PublishAt: daysAgo(1), Featured: true},
		{Slug: "cpi-cools", Title: "CPI Cools", Excerpt: "Inflation eases to 3%.", Categories: []string{"Economy"}, Tags: []string{"inflation"}, Author: "jordan-lee", PublishAt: daysAgo(2)},
		{Slug: "btc-halving", Title: "Bitcoin After the Halving", Excerpt: "Supply shock.", Categories: []string{"Crypto", "markets"}, Tags: []string{"bitcoin"}, Author: "alex-rivera", PublishAt: daysAgo(3), Featured: true},
		{Slug: "tie-a", Title: "Tie A", Categories: []string{"Analysis"}, PublishAt: daysAgo(5)},
		{Slug: "tie-b", Title: "Tie B", Categories: []string{"Analysis"}, PublishAt: daysAgo(5)},
		{Slug: "earnings-preview", Title: "Earnings Preview", Categories: []string{"Markets"}, Tags: []string{"earnings"}, Author: "alex-rivera", PublishAt: refNow.Add(time.Hour), Featured: true},
		{Slug: "undated", Title: "Undated Draft", Categories: []string{"Markets"}},
	}
}

func newFixtureQuery(posts []Post) *Query {
	return NewQuery(&sliceSource{posts: posts}, WithClock(func() time.Time { return refNow }))
}

func slugsOf(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Slug
	}
	return out
}

func TestPublishedExcludesFuturePosts(t *testing.T) {
	q := newFixtureQuery(fixturePosts())

	published := slugsOf(q.Published(context.Background()))
	want := []string{"spx-record", "cpi-cools", "btc-halving", "tie-a", "tie-b"}
	if diff := cmp.Diff(want, published); diff != "" {
		t.Errorf("Published() mismatch (-want +got):\n%s", diff)
	}

	all := slugsOf(q.IncludingDrafts(context.Background()))
	assert.Contains(t, all, "earnings-preview")
	assert.Contains(t, all, "undated")
	assert.Equal(t, "earnings-preview", all[0], "drafts list is sorted newest first too")
}

func TestPublishedTieKeepsSourceOrder(t *testing.T) {
	posts := fixturePosts()
	posts[3], posts[4] = posts[4], posts[3]
	q := newFixtureQuery(posts)

	got := slugsOf(q.Published(context.Background()))
	assert.Equal(t, []string{"tie-b", "tie-a"}, got[3:])
}

func TestFeaturedAndLatest(t *testing.T) {
	q := newFixtureQuery(fixturePosts())
	ctx := context.Background()

	assert.Equal(t, []string{"spx-record", "btc-halving"}, slugsOf(q.Featured(ctx, 4)))
	assert.Equal(t, []string{"spx-record"}, slugsOf(q.Featured(ctx, 1)))
	assert.Equal(t, []string{"spx-record", "cpi-cools"}, slugsOf(q.Latest(ctx, 2)))
	assert.Len(t, q.Latest(ctx, 0), 5, "default cap is larger than the fixture")
}

func TestByCategoryIsCaseInsensitive(t *testing.T) {
	q := newFixtureQuery(fixturePosts())
	ctx := context.Background()

	lower := q.ByCategory(ctx, "markets", 0)
	upper := q.ByCategory(ctx, "Markets", 0)
	if diff := cmp.Diff(slugsOf(lower), slugsOf(upper)); diff != "" {
		t.Errorf("ByCategory case mismatch (-markets +Markets):\n%s", diff)
	}
	assert.Equal(t, []string{"spx-record", "btc-halving"}, slugsOf(lower))
	assert.Equal(t, []string{"spx-record"}, slugsOf(q.ByCategory(ctx, "MARKETS", 1)))
}

func TestByTagAndAuthor(t *testing.T) {
	q := newFixtureQuery(fixturePosts())
	ctx := context.Background()

	assert.Equal(t, []string{"spx-record"}, slugsOf(q.ByTag(ctx, "stocks")))
	assert.Equal(t, []string{"spx-record"}, slugsOf(q.ByTag(ctx, "spx")))
	assert.Empty(t, q.ByTag(ctx, "earnings"), "scheduled posts are not public")

	assert.Equal(t, []string{"spx-record", "btc-halving"}, slugsOf(q.ByAuthor(ctx, "alex-rivera")))
	assert.Empty(t, q.ByAuthor(ctx, "Alex-Rivera"), "author match is exact")
}

func TestRelated(t *testing.T) {
	posts := fixturePosts()
	for i := 0; i < 4; i++ {
		posts = append(posts, Post{
			Slug:       "markets-" + string(rune('a'+i)),
			Categories: []string{"Markets"},
			PublishAt:  daysAgo(10 + i),
		})
	}
	q := newFixtureQuery(posts)
	ctx := context.Background()
	current := posts[0]

	related := q.Related(ctx, current, 3)
	require.Len(t, related, 3)
	for _, r := range related {
		assert.NotEqual(t, current.Slug, r.Slug)
		assert.True(t, shareCategory(current, r), "%s shares no category", r.Slug)
	}
	assert.Equal(t, []string{"btc-halving", "markets-a", "markets-b"}, slugsOf(related))
}

func shareCategory(a, b Post) bool {
	for _, x := range a.Categories {
		if containsFold(b.Categories, x) {
			return true
		}
	}
	return false
}

func TestSearch(t *testing.T) {
	q := newFixtureQuery(fixturePosts())
	ctx := context.Background()

	tests := []struct {
		query string
		want  []string
	}{
		{"record", []string{"spx-record"}},
		{"INFLATION", []string{"cpi-cools"}},
		{"bit", []string{"btc-halving"}},
		{"crypto", []string{"btc-halving"}},
		{"earnings", nil},
		{"", nil},
		{"   ", nil},
	}
	for _, tt := range tests {
		got := q.Search(ctx, tt.query)
		if diff := cmp.Diff(tt.want, slugsOf(got), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Search(%q) mismatch (-want +got):\n%s", tt.query, diff)
		}
	}
}

func TestPostHidesScheduled(t *testing.T) {
	q := newFixtureQuery(fixturePosts())
	ctx := context.Background()

	_, ok := q.Post(ctx, "earnings-preview")
	assert.False(t, ok)
	_, ok = q.Lookup(ctx, "earnings-preview")
	assert.True(t, ok)
	_, ok = q.Post(ctx, "missing")
	assert.False(t, ok)
	p, ok := q.Post(ctx, "cpi-cools")
	assert.True(t, ok)
	assert.Equal(t, "CPI Cools", p.Title)
}

func TestTagsAndSlugs(t *testing.T) {
	q := newFixtureQuery(fixturePosts())
	ctx := context.Background()

	assert.Equal(t, []string{"bitcoin", "inflation", "spx", "stocks"}, q.Tags(ctx))
	assert.Len(t, q.Slugs(ctx), 7)
}

func TestQueryDegradesOnSourceFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	q := NewQuery(&sliceSource{err: errors.New("disk on fire")}, WithLogger(zap.New(core)))
	ctx := context.Background()

	assert.Empty(t, q.Published(ctx))
	assert.Empty(t, q.Latest(ctx, 3))
	_, ok := q.Post(ctx, "anything")
	assert.False(t, ok)
	assert.Equal(t, 3, logs.Len(), "each degraded read is logged")
}

func TestScheduledPostPublishesWhenClockAdvances(t *testing.T) {
	s := setupSQLiteStore(t)
	ctx := context.Background()
	now := refNow
	q := NewQuery(s, WithClock(func() time.Time { return now }))

	require.NoError(t, s.Upsert(ctx, "fed-rate-decision", Frontmatter{
		"title":      "Fed Rate Decision",
		"categories": []string{"Economy"},
		"publishAt":  now.Add(24 * time.Hour).Format(time.RFC3339),
	}, words(350)))

	assert.Contains(t, slugsOf(q.IncludingDrafts(ctx)), "fed-rate-decision")
	assert.NotContains(t, slugsOf(q.Published(ctx)), "fed-rate-decision")

	now = now.Add(25 * time.Hour)
	published := q.Published(ctx)
	require.Contains(t, slugsOf(published), "fed-rate-decision")
	assert.Equal(t, 2, published[0].ReadTime)
}
