package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Registry is an immutable slug-keyed lookup of static records.
type Registry[T any] struct {
	items []T
	index map[string]int
}

func newRegistry[T any](items []T, slugOf func(T) string) (*Registry[T], error) {
	r := &Registry[T]{items: items, index: make(map[string]int, len(items))}
	for i, it := range items {
		slug := slugOf(it)
		if slug == "" {
			return nil, fmt.Errorf("content: registry entry %d has no slug", i)
		}
		if _, dup := r.index[slug]; dup {
			return nil, fmt.Errorf("content: duplicate slug %q", slug)
		}
		r.index[slug] = i
	}
	return r, nil
}

// All returns every record in load order.
func (r *Registry[T]) All() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Get returns the record with slug.
func (r *Registry[T]) Get(slug string) (T, bool) {
	i, ok := r.index[slug]
	if !ok {
		var zero T
		return zero, false
	}
	return r.items[i], true
}

// Len is the number of records.
func (r *Registry[T]) Len() int {
	return len(r.items)
}

// Authors is the author registry.
type Authors = Registry[Author]

// Categories is the category registry.
type Categories = Registry[Category]

// LoadAuthors reads one author per *.json file in dir. A missing directory
// yields an empty registry.
func LoadAuthors(dir string) (*Authors, error) {
	files, err := jsonFiles(dir, "")
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	authors := make([]Author, 0, len(files))
	for _, f := range files {
		var a Author
		if err := readJSON(f, &a); err != nil {
			return nil, fmt.Errorf("load authors: %w", err)
		}
		authors = append(authors, a)
	}
	return newRegistry(authors, func(a Author) string { return a.Slug })
}

// LoadCategories reads dir/all.json as an array when present, otherwise one
// category per *.json file. A missing directory yields an empty registry.
func LoadCategories(dir string) (*Categories, error) {
	var cats []Category
	err := readJSON(filepath.Join(dir, "all.json"), &cats)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		files, err := jsonFiles(dir, "all.json")
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		cats = make([]Category, 0, len(files))
		for _, f := range files {
			var c Category
			if err := readJSON(f, &c); err != nil {
				return nil, fmt.Errorf("load categories: %w", err)
			}
			cats = append(cats, c)
		}
	default:
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return newRegistry(cats, func(c Category) string { return c.Slug })
}

func jsonFiles(dir, skip string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || name == skip {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
