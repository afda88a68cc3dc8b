package content

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Store persists posts. List returns every post including drafts in the
// store's natural order; callers sort.
type Store interface {
	List(ctx context.Context) ([]Post, error)
	Get(ctx context.Context, slug string) (Post, error)
	Upsert(ctx context.Context, slug string, fm Frontmatter, body string) error
	Delete(ctx context.Context, slug string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFiles  = "files"
)

// Options selects and configures the content backend.
type Options struct {
	Backend      string // BackendSQLite (default) or BackendFiles
	DatabasePath string // SQLite document store path
	PostsDir     string // directory of <slug>.md / .mdx files
	Logger       *zap.Logger
}

// Open constructs the configured backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		return NewSQLiteStore(opts.DatabasePath)
	case BackendFiles:
		return NewFileStore(opts.PostsDir, WithFileLogger(opts.Logger)), nil
	default:
		return nil, fmt.Errorf("content: unknown backend %q", opts.Backend)
	}
}

// clock is swapped in tests.
type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
