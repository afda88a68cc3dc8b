package newsdesk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eringen/newsdesk/content"
)

const testSecret = "antigravity2024"

var refNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func writeFixture(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

// setupApp builds an App over a temp content dir and SQLite store with a
// fixed clock. Seeded posts: three published, one scheduled.
func setupApp(t *testing.T, mutate ...func(*SiteConfig)) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := SiteConfig{
		Name:          "Market Wire",
		URL:           "https://wire.example.com",
		Description:   "Markets, economy and crypto.",
		DatabasePath:  filepath.Join(dir, "data", "newsdesk.db"),
		ContentDir:    filepath.Join(dir, "content"),
		StaticDir:     filepath.Join(dir, "public"),
		AdminPassword: testSecret,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	writeFixture(t, filepath.Join(cfg.ContentDir, "categories", "all.json"), `[
		{"name":"Markets","slug":"markets","description":"Stocks and indices","color":"#2563eb","accent":"#1d4ed8"},
		{"name":"Economy","slug":"economy","description":"Macro","color":"#16a34a","accent":"#15803d"},
		{"name":"Crypto","slug":"crypto","description":"Digital assets","color":"#f97316","accent":"#c2410c"},
		{"name":"Commodities","slug":"commodities","description":"Oil and metals","color":"#a16207","accent":"#854d0e"}
	]`)
	writeFixture(t, filepath.Join(cfg.ContentDir, "authors", "alex-rivera.json"),
		`{"name":"Alex Rivera","slug":"alex-rivera","bio":"Markets editor.","avatar":"/images/alex.jpg","role":"Editor"}`)

	app := New(cfg, ViewFuncs{}, WithLogger(zap.NewNop()), WithClock(func() time.Time { return refNow }))
	require.NoError(t, app.Setup())
	t.Cleanup(func() { app.Close() })

	if app.Config.Backend == content.BackendSQLite {
		seedPosts(t, app.Store)
	}
	return app
}

func seedPosts(t *testing.T, s content.Store) {
	t.Helper()
	ctx := context.Background()
	posts := []struct {
		slug string
		fm   content.Frontmatter
		body string
	}{
		{"spx-record", content.Frontmatter{
			"title": "S&P 500 Closes at a Record", "excerpt": "Equities rally into the close.",
			"categories": []string{"Markets"}, "tags": []string{"Stocks", "Record Highs"},
			"author": "alex-rivera", "featured": true, "symbol": "SP:SPX",
			"publishAt": refNow.Add(-24 * time.Hour).Format(time.RFC3339),
		}, "The index **closes** at a record high."},
		{"cpi-cools", content.Frontmatter{
			"title": "CPI Cools", "excerpt": "Inflation eases.",
			"categories": []string{"Economy"}, "tags": []string{"inflation"},
			"author": "jordan-lee",
			"publishAt":  refNow.Add(-48 * time.Hour).Format(time.RFC3339),
		}, "Consumer prices rose less than expected."},
		{"btc-halving", content.Frontmatter{
			"title": "Bitcoin After the Halving", "excerpt": "Supply shock.",
			"categories": []string{"Crypto", "Markets"}, "tags": []string{"bitcoin"},
			"author": "alex-rivera", "featured": true,
			"publishAt": refNow.Add(-72 * time.Hour).Format(time.RFC3339),
		}, "Miners adjust."},
		{"fed-rate-decision", content.Frontmatter{
			"title": "Fed Rate Decision", "categories": []string{"Economy"},
			"publishAt": refNow.Add(24 * time.Hour).Format(time.RFC3339),
		}, "Embargoed until the announcement."},
	}
	for _, p := range posts {
		require.NoError(t, s.Upsert(ctx, p.slug, p.fm, p.body))
	}
}

func doRequest(t *testing.T, app *App, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func adminHeader(token string) http.Header {
	h := http.Header{}
	h.Set(AdminTokenHeader, token)
	h.Set("Content-Type", "application/json")
	return h
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}
