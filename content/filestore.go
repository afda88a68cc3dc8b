package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// FileStore keeps one markdown file with YAML front matter per post.
// Upserts overwrite the whole file.
type FileStore struct {
	dir string
	now clock
	log *zap.Logger
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithFileLogger sets the logger used to report unreadable post files.
func WithFileLogger(l *zap.Logger) FileStoreOption {
	return func(s *FileStore) {
		if l != nil {
			s.log = l
		}
	}
}

// NewFileStore returns a store rooted at dir. The directory is created on the
// first write; a missing directory reads as empty.
func NewFileStore(dir string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{dir: dir, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir is the directory the store reads from.
func (s *FileStore) Dir() string {
	return s.dir
}

// Close is a no-op; FileStore holds no handles.
func (s *FileStore) Close() error {
	return nil
}

func isPostFile(name string) bool {
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".mdx")
}

func stem(name string) string {
	return strings.TrimSuffix(strings.TrimSuffix(name, ".mdx"), ".md")
}

// postFile is one post file and the slug it resolves to. err is set when the
// file could not be decoded; slug then falls back to the file stem.
type postFile struct {
	name string
	slug string
	post Post
	err  error
}

// scan reads every .md and .mdx file in name order.
func (s *FileStore) scan(ctx context.Context) ([]postFile, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read posts dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var files []postFile
	for _, e := range entries {
		if e.IsDir() || !isPostFile(e.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := postFile{name: e.Name(), slug: stem(e.Name())}
		f.post, f.err = s.readFile(filepath.Join(s.dir, e.Name()))
		if f.err == nil {
			f.slug = f.post.Slug
		}
		files = append(files, f)
	}
	return files, nil
}

// List reads every .md and .mdx file in name order. Files that fail to decode
// are logged and skipped.
func (s *FileStore) List(ctx context.Context) ([]Post, error) {
	files, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	var posts []Post
	for _, f := range files {
		if f.err != nil {
			s.log.Warn("skipping unreadable post file", zap.String("file", f.name), zap.Error(f.err))
			continue
		}
		posts = append(posts, f.post)
	}
	return posts, nil
}

// Get returns the post whose resolved slug matches. The slug may live in
// front matter rather than the file name, so this scans like List does.
func (s *FileStore) Get(ctx context.Context, slug string) (Post, error) {
	if !ValidSlug(slug) {
		return Post{}, ErrNotFound
	}
	for _, ext := range []string{".mdx", ".md"} {
		p, err := s.readFile(filepath.Join(s.dir, slug+ext))
		if err == nil && p.Slug == slug {
			return p, nil
		}
	}
	posts, err := s.List(ctx)
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

// filesFor returns the names of every file that resolves to slug, and the
// slug held by <slug>.mdx when that file belongs to another post.
func (s *FileStore) filesFor(ctx context.Context, slug string) (names []string, target string, err error) {
	files, err := s.scan(ctx)
	if err != nil {
		return nil, "", err
	}
	for _, f := range files {
		if f.slug == slug {
			names = append(names, f.name)
		} else if f.name == slug+".mdx" {
			target = f.slug
		}
	}
	return names, target, nil
}

// Upsert writes <slug>.mdx and removes any other file that resolves to the
// same slug.
func (s *FileStore) Upsert(ctx context.Context, slug string, fm Frontmatter, body string) error {
	if !ValidSlug(slug) {
		return ErrInvalidSlug
	}
	prepared, err := fm.prepare(slug, s.now.now())
	if err != nil {
		return err
	}
	if err := checkDecodable(prepared, slug); err != nil {
		return err
	}
	data, err := FormatFrontmatter(prepared, body)
	if err != nil {
		return err
	}
	stale, owner, err := s.filesFor(ctx, slug)
	if err != nil {
		return err
	}
	if owner != "" {
		return fmt.Errorf("%w: %s.mdx already holds post %q", ErrValidation, slug, owner)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create posts dir: %w", err)
	}

	// Write through a temp file so readers never see a half written post.
	tmp, err := os.CreateTemp(s.dir, "."+slug+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write post %q: %w", slug, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write post %q: %w", slug, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write post %q: %w", slug, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, slug+".mdx")); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write post %q: %w", slug, err)
	}
	for _, name := range stale {
		if name == slug+".mdx" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale post %q: %w", name, err)
		}
	}
	return nil
}

// Delete removes every file that resolves to slug. Missing files are not an
// error.
func (s *FileStore) Delete(ctx context.Context, slug string) error {
	if !ValidSlug(slug) {
		return ErrInvalidSlug
	}
	names, _, err := s.filesFor(ctx, slug)
	if err != nil {
		return err
	}
	for _, name := range names {
		err := os.Remove(filepath.Join(s.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete post %q: %w", slug, err)
		}
	}
	return nil
}

func (s *FileStore) readFile(path string) (Post, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Post{}, err
	}
	fm, body, err := ParseFrontmatter(raw)
	if err != nil {
		return Post{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	p, err := decodePost(fm, body, stem(filepath.Base(path)))
	if err != nil {
		return Post{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return p, nil
}
