package newsdesk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/eringen/newsdesk/content"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SITE_NAME", "Market Wire")
	t.Setenv("CONTENT_BACKEND", "files")
	t.Setenv("CONTENT_DIR", "/srv/content")
	t.Setenv("ADMIN_PASSWORD", testSecret)
	t.Setenv("POST_CACHE_TTL", "30s")
	t.Setenv("ADMIN_MAX_FAILURES", "3")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "Market Wire", cfg.Name)
	assert.Equal(t, content.BackendFiles, cfg.Backend)
	assert.Equal(t, 30*time.Second, cfg.PostCacheTTL)
	assert.Equal(t, 3, cfg.AdminMaxFailures)
	assert.Equal(t, "/srv/content/posts", cfg.PostsDir())
	assert.Equal(t, content.Options{Backend: "files", PostsDir: "/srv/content/posts"}, cfg.StoreOptions())
	require.NoError(t, cfg.Validate())
}

func TestConfigFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("POST_CACHE_TTL", "soon")
	_, err := ConfigFromEnv()
	assert.ErrorContains(t, err, "POST_CACHE_TTL")

	t.Setenv("POST_CACHE_TTL", "")
	t.Setenv("ADMIN_MAX_FAILURES", "many")
	_, err = ConfigFromEnv()
	assert.ErrorContains(t, err, "ADMIN_MAX_FAILURES")
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg SiteConfig
	cfg.setDefaults()
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, content.BackendSQLite, cfg.Backend)
	assert.Equal(t, "data/newsdesk.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Minute, cfg.PostCacheTTL)
	assert.Zero(t, cfg.AdminMaxFailures)

	err := cfg.Validate()
	assert.ErrorContains(t, err, "AdminPassword is required")

	cfg.AdminPassword = testSecret
	cfg.Backend = "firestore"
	assert.ErrorContains(t, cfg.Validate(), `unknown content backend "firestore"`)
}

func TestSetupFailsWithoutSecret(t *testing.T) {
	app := New(SiteConfig{DatabasePath: t.TempDir() + "/x.db"}, ViewFuncs{})
	assert.ErrorContains(t, app.Setup(), "AdminPassword is required")
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("loud")
	assert.Error(t, err)
}
