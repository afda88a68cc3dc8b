package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned when a requested post does not exist.
	ErrNotFound = errors.New("content: post not found")
	// ErrInvalidSlug is returned for slugs that are empty or not URL safe.
	ErrInvalidSlug = errors.New("content: invalid slug")
	// ErrValidation wraps field level problems in caller supplied front matter.
	ErrValidation = errors.New("content: validation failed")
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidSlug reports whether slug can be used as a post identity.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// Frontmatter is the caller supplied metadata of a post, keyed by the JSON
// field names of Post.
type Frontmatter map[string]any

// Accepted publishAt layouts, most specific first. Layouts without a zone are
// read as UTC.
var publishLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePublishAt parses the publish timestamp formats accepted from editors
// and front matter files.
func ParsePublishAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range publishLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: publishAt %q is not a valid timestamp", ErrValidation, s)
}

// prepare returns a copy of fm ready to persist for slug. Derived and body
// fields are dropped, publishAt is canonicalised to RFC 3339 UTC and comma
// separated tag strings are split.
func (fm Frontmatter) prepare(slug string, now time.Time) (Frontmatter, error) {
	out := make(Frontmatter, len(fm)+1)
	for k, v := range fm {
		out[k] = v
	}
	delete(out, "content")
	delete(out, "readTime")
	delete(out, "updatedAt")
	out["slug"] = slug

	switch v := out["publishAt"].(type) {
	case nil:
		out["publishAt"] = now.UTC().Format(time.RFC3339)
	case time.Time:
		out["publishAt"] = v.UTC().Format(time.RFC3339)
	case string:
		if strings.TrimSpace(v) == "" {
			out["publishAt"] = now.UTC().Format(time.RFC3339)
			break
		}
		t, err := ParsePublishAt(v)
		if err != nil {
			return nil, err
		}
		out["publishAt"] = t.Format(time.RFC3339)
	default:
		return nil, fmt.Errorf("%w: publishAt has unsupported type %T", ErrValidation, v)
	}

	coerceFields(out)
	return out, nil
}

// Fields of Post that hold text. Scalars of other kinds in these keys are
// stringified so that `title: 2024` in YAML reads as "2024".
var (
	textFields = []string{
		"title", "slug", "excerpt", "deck", "coverImage", "coverImageAlt",
		"author", "symbol", "metaTitle", "metaDescription", "ogImage",
	}
	listFields = []string{"categories", "tags"}
)

func coerceFields(doc Frontmatter) {
	for _, k := range textFields {
		if s, ok := scalarString(doc[k]); ok {
			doc[k] = s
		}
	}
	for _, k := range listFields {
		switch v := doc[k].(type) {
		case string:
			doc[k] = splitList(v)
		case []any:
			out := make([]any, 0, len(v))
			for _, item := range v {
				if s, ok := scalarString(item); ok {
					out = append(out, s)
				} else if item != nil {
					out = append(out, item)
				}
			}
			doc[k] = out
		}
	}
}

func scalarString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(v), true
	case time.Time:
		return v.UTC().Format(time.RFC3339), true
	}
	return "", false
}

// checkDecodable rejects documents that would fail to decode on read, so
// nothing unreadable is ever persisted.
func checkDecodable(doc Frontmatter, slug string) error {
	if _, err := decodePost(doc, "", slug); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// merge overlays fm on top of base.
func (fm Frontmatter) merge(base Frontmatter) Frontmatter {
	out := make(Frontmatter, len(base)+len(fm))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fm {
		out[k] = v
	}
	return out
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// decodePost turns stored metadata plus a body into a normalized Post.
// fallbackSlug is used when the metadata carries no slug.
func decodePost(fm Frontmatter, body, fallbackSlug string) (Post, error) {
	doc := make(Frontmatter, len(fm))
	for k, v := range fm {
		doc[k] = v
	}
	// yaml only resolves canonical timestamps to time.Time; quoted and loose
	// editor layouts arrive as strings.
	switch v := doc["publishAt"].(type) {
	case string:
		if t, err := ParsePublishAt(v); err == nil {
			doc["publishAt"] = t
		} else {
			delete(doc, "publishAt")
		}
	case time.Time, nil:
	default:
		delete(doc, "publishAt")
	}
	delete(doc, "content")
	delete(doc, "readTime")
	coerceFields(doc)

	raw, err := json.Marshal(doc)
	if err != nil {
		return Post{}, fmt.Errorf("encode metadata: %w", err)
	}
	var p Post
	if err := json.Unmarshal(raw, &p); err != nil {
		return Post{}, fmt.Errorf("decode metadata: %w", err)
	}
	if p.Slug == "" {
		p.Slug = fallbackSlug
	}
	p.Content = body
	normalize(&p)
	return p, nil
}

var (
	fence     = []byte("---")
	fenceLine = []byte("---\n")
)

// ParseFrontmatter splits a markdown file into its YAML front matter and body.
// Input without a leading --- fence is returned entirely as body.
func ParseFrontmatter(raw []byte) (Frontmatter, string, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(raw, fenceLine) {
		return Frontmatter{}, string(raw), nil
	}
	rest := raw[len(fenceLine):]

	var header []byte
	var body []byte
	switch {
	case bytes.HasPrefix(rest, fenceLine):
		body = rest[len(fenceLine):]
	case bytes.Equal(rest, fence):
	default:
		end := bytes.Index(rest, []byte("\n---\n"))
		if end < 0 {
			if !bytes.HasSuffix(rest, []byte("\n---")) {
				return nil, "", fmt.Errorf("%w: unterminated front matter", ErrValidation)
			}
			end = len(rest) - len("\n---")
			header = rest[:end]
			break
		}
		header = rest[:end]
		body = rest[end+len("\n---\n"):]
	}

	fm := Frontmatter{}
	if len(bytes.TrimSpace(header)) > 0 {
		if err := yaml.Unmarshal(header, &fm); err != nil {
			return nil, "", fmt.Errorf("parse front matter: %w", err)
		}
	}
	return fm, string(body), nil
}

// FormatFrontmatter renders fm as a YAML block followed by body.
func FormatFrontmatter(fm Frontmatter, body string) ([]byte, error) {
	header, err := yaml.Marshal(map[string]any(fm))
	if err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.Write(fenceLine)
	buf.Write(header)
	buf.Write(fenceLine)
	buf.WriteString(body)
	return buf.Bytes(), nil
}
