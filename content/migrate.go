package content

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// MigrateOptions tunes Migrate.
type MigrateOptions struct {
	// Concurrency caps parallel conversion of source posts (default 4).
	Concurrency int
	// OnPost is called after each post is written.
	OnPost func(slug string)
}

// Migrate copies every post in from, drafts included, into to and returns the
// migrated slugs sorted. Existing posts in to are merged or overwritten
// according to the destination's upsert semantics. Writes happen in source
// order so the destination's insertion order matches the source.
func Migrate(ctx context.Context, from, to Store, opts MigrateOptions) ([]string, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	posts, err := from.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: read source: %w", err)
	}

	docs := make([]Frontmatter, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, p := range posts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fm, err := postFrontmatter(p)
			if err != nil {
				return fmt.Errorf("migrate %q: %w", p.Slug, err)
			}
			docs[i] = fm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	migrated := make([]string, 0, len(posts))
	for i, p := range posts {
		if err := to.Upsert(ctx, p.Slug, docs[i], p.Content); err != nil {
			return nil, fmt.Errorf("migrate %q: %w", p.Slug, err)
		}
		if opts.OnPost != nil {
			opts.OnPost(p.Slug)
		}
		migrated = append(migrated, p.Slug)
	}
	sort.Strings(migrated)
	return migrated, nil
}

// postFrontmatter converts a decoded post back into persistable front matter.
// Posts without a publish time are stamped with the current time.
func postFrontmatter(p Post) (Frontmatter, error) {
	if p.PublishAt.IsZero() {
		p.PublishAt = time.Now().UTC()
	}
	p.Content = ""
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	fm := Frontmatter{}
	if err := json.Unmarshal(raw, &fm); err != nil {
		return nil, err
	}
	delete(fm, "content")
	delete(fm, "readTime")
	delete(fm, "updatedAt")
	return fm, nil
}
