package newsdesk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// PostsWatcher calls onChange after post files in dir are created, written,
// renamed or removed. Bursts of events within the debounce window collapse
// into one call.
type PostsWatcher struct {
	dir      string
	debounce time.Duration
	onChange func()
	log      *zap.Logger
}

// NewPostsWatcher creates a watcher for dir. It does nothing until Run.
func NewPostsWatcher(dir string, onChange func(), log *zap.Logger) *PostsWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostsWatcher{
		dir:      dir,
		debounce: 250 * time.Millisecond,
		onChange: onChange,
		log:      log,
	}
}

// Run watches until ctx is cancelled. The directory is created if missing.
func (w *PostsWatcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create posts dir: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("posts watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching posts directory", zap.String("dir", w.dir))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isPostFileName(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debug("post file changed", zap.String("file", filepath.Base(ev.Name)), zap.Stringer("op", ev.Op))
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("posts watcher error", zap.Error(err))
		case <-timer.C:
			w.onChange()
		}
	}
}

func isPostFileName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".mdx"
}
