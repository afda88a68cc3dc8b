package content

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAuthors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alex-rivera.json", `{"name":"Alex Rivera","slug":"alex-rivera","bio":"Markets editor.","avatar":"/a.jpg","twitter":"alexr"}`)
	writeFile(t, dir, "jordan-lee.json", `{"name":"Jordan Lee","slug":"jordan-lee","bio":"","avatar":"/j.jpg","role":"Economist"}`)
	writeFile(t, dir, "README.md", "not json")

	authors, err := LoadAuthors(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, authors.Len())

	a, ok := authors.Get("alex-rivera")
	require.True(t, ok)
	assert.Equal(t, "Alex Rivera", a.Name)
	assert.Equal(t, "alexr", a.Twitter)

	_, ok = authors.Get("nobody")
	assert.False(t, ok)
}

func TestLoadCategoriesPrefersAllJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "all.json", `[
		{"name":"Markets","slug":"markets","description":"Stocks and indices","color":"#0066ff","accent":"#0044aa"},
		{"name":"Crypto","slug":"crypto","description":"Digital assets","color":"#f97316","accent":"#c2410c"}
	]`)
	writeFile(t, dir, "economy.json", `{"name":"Economy","slug":"economy"}`)

	cats, err := LoadCategories(dir)
	require.NoError(t, err)
	all := cats.All()
	require.Len(t, all, 2)
	assert.Equal(t, "markets", all[0].Slug)
	assert.Equal(t, "crypto", all[1].Slug)
	_, ok := cats.Get("economy")
	assert.False(t, ok)
}

func TestLoadCategoriesPerFileFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "opinion.json", `{"name":"Opinion","slug":"opinion"}`)
	writeFile(t, dir, "analysis.json", `{"name":"Analysis","slug":"analysis"}`)

	cats, err := LoadCategories(dir)
	require.NoError(t, err)
	assert.Equal(t, []Category{{Name: "Analysis", Slug: "analysis"}, {Name: "Opinion", Slug: "opinion"}}, cats.All())
}

func TestLoadRegistriesMissingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	authors, err := LoadAuthors(missing)
	require.NoError(t, err)
	assert.Zero(t, authors.Len())

	cats, err := LoadCategories(missing)
	require.NoError(t, err)
	assert.Zero(t, cats.Len())
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"name":"A","slug":"same"}`)
	writeFile(t, dir, "b.json", `{"name":"B","slug":"same"}`)

	_, err := LoadAuthors(dir)
	assert.ErrorContains(t, err, "duplicate slug")
}
