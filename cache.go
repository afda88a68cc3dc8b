package newsdesk

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/newsdesk/content"
)

// PostCache is an in-memory, TTL bounded copy of every post in a content
// store, drafts included. It satisfies content.Source so the query layer
// reads through it.
type PostCache struct {
	mu      sync.RWMutex
	posts   []content.Post
	bySlug  map[string]int
	fetched time.Time
	ttl     time.Duration
	store   content.Store
	now     func() time.Time
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s content.Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl, now: time.Now}
}

func (c *PostCache) valid() bool {
	return c.bySlug != nil && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.bySlug = nil
	c.mu.Unlock()
}

func (c *PostCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.List(ctx)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(posts))
	for i, p := range posts {
		index[p.Slug] = i
	}
	c.posts = posts
	c.bySlug = index
	c.fetched = c.now()
	return nil
}

// ensureLoaded returns the cached posts after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]content.Post, map[string]int, error) {
	c.mu.RLock()
	if c.valid() {
		posts, index := c.posts, c.bySlug
		c.mu.RUnlock()
		return posts, index, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.posts, c.bySlug, nil
}

// List returns every cached post in store order. Callers must not modify the
// returned slice.
func (c *PostCache) List(ctx context.Context) ([]content.Post, error) {
	posts, _, err := c.ensureLoaded(ctx)
	return posts, err
}

// Get returns a single post by slug, drafts included.
func (c *PostCache) Get(ctx context.Context, slug string) (content.Post, error) {
	posts, index, err := c.ensureLoaded(ctx)
	if err != nil {
		return content.Post{}, err
	}
	i, ok := index[slug]
	if !ok {
		return content.Post{}, content.ErrNotFound
	}
	return posts[i], nil
}
