package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one JSON document per post, keyed by slug. Upserts merge
// the supplied fields into the existing document.
type SQLiteStore struct {
	db  *sql.DB
	now clock

	// writeMu serializes the read-merge-write cycle of Upsert.
	writeMu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, and creates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	// Pragmas go in the DSN so every pooled connection gets them. WAL lets
	// public readers and the admin writer proceed together; busy_timeout makes
	// writers wait rather than fail with SQLITE_BUSY.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open content db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    doc TEXT NOT NULL,
    content TEXT NOT NULL,
    publish_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`)
	return err
}

// List returns every post in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, doc, content, updated_at FROM posts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var slug, doc, body, updated string
		if err := rows.Scan(&slug, &doc, &body, &updated); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p, err := s.decode(slug, doc, body, updated)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Get returns a single post by slug, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, slug string) (Post, error) {
	var doc, body, updated string
	err := s.db.QueryRowContext(ctx, `SELECT doc, content, updated_at FROM posts WHERE slug = ?`, slug).
		Scan(&doc, &body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post %q: %w", slug, err)
	}
	return s.decode(slug, doc, body, updated)
}

// Upsert merges fm into the stored document for slug (creating it when
// absent), replaces the body and stamps updatedAt.
func (s *SQLiteStore) Upsert(ctx context.Context, slug string, fm Frontmatter, body string) error {
	if !ValidSlug(slug) {
		return ErrInvalidSlug
	}
	now := s.now.now().UTC()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	existing := Frontmatter{}
	var doc string
	err = tx.QueryRowContext(ctx, `SELECT doc FROM posts WHERE slug = ?`, slug).Scan(&doc)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("load post %q: %w", slug, err)
	default:
		if err := json.Unmarshal([]byte(doc), &existing); err != nil {
			return fmt.Errorf("decode stored post %q: %w", slug, err)
		}
	}

	// Keep the stored publishAt when the caller did not send one.
	if _, ok := fm["publishAt"]; !ok {
		if prev, ok := existing["publishAt"]; ok {
			fm = Frontmatter{"publishAt": prev}.merge(fm)
		}
	}
	prepared, err := fm.prepare(slug, now)
	if err != nil {
		return err
	}
	merged := prepared.merge(existing)
	if err := checkDecodable(merged, slug); err != nil {
		return err
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode post %q: %w", slug, err)
	}
	publishAt, _ := merged["publishAt"].(string)
	_, err = tx.ExecContext(ctx, `
INSERT INTO posts (slug, doc, content, publish_at, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET
    doc = excluded.doc,
    content = excluded.content,
    publish_at = excluded.publish_at,
    updated_at = excluded.updated_at`,
		slug, string(raw), body, publishAt, now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert post %q: %w", slug, err)
	}
	return tx.Commit()
}

// Delete removes a post by slug. Deleting an absent slug is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, slug string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("delete post %q: %w", slug, err)
	}
	return nil
}

func (s *SQLiteStore) decode(slug, doc, body, updated string) (Post, error) {
	fm := Frontmatter{}
	if err := json.Unmarshal([]byte(doc), &fm); err != nil {
		return Post{}, fmt.Errorf("decode post %q: %w", slug, err)
	}
	p, err := decodePost(fm, body, slug)
	if err != nil {
		return Post{}, fmt.Errorf("decode post %q: %w", slug, err)
	}
	p.Slug = slug
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		p.UpdatedAt = t
	}
	return p, nil
}
