package newsdesk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/newsdesk/content"
)

// DefaultAdminMaxFailures is the per-minute budget of bad admin tokens per
// client IP used by ConfigFromEnv and the CLI.
const DefaultAdminMaxFailures = 10

// SiteConfig holds all configuration for a newsdesk site.
type SiteConfig struct {
	Name        string // Site name (default "Newsdesk")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS

	Addr         string // Listen address (default ":3000")
	Backend      string // content.BackendSQLite (default) or content.BackendFiles
	DatabasePath string // SQLite document store (default "data/newsdesk.db")
	ContentDir   string // Holds posts/, authors/ and categories/ (default "content")
	StaticDir    string // User static assets and uploads (default "public")

	AdminPassword string // Required: shared secret for X-Admin-Token

	// AdminMaxFailures caps failed admin tokens per IP per minute. Zero
	// disables the limiter.
	AdminMaxFailures int

	PostCacheTTL time.Duration // Post cache TTL (default 5min)
	LogLevel     string        // zap level name (default "info")
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Newsdesk"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Backend == "" {
		c.Backend = content.BackendSQLite
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/newsdesk.db"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports configuration that would keep the site from starting.
func (c SiteConfig) Validate() error {
	var errs []error
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("AdminPassword is required"))
	}
	switch c.Backend {
	case "", content.BackendSQLite, content.BackendFiles:
	default:
		errs = append(errs, fmt.Errorf("unknown content backend %q", c.Backend))
	}
	if c.AdminMaxFailures < 0 {
		errs = append(errs, errors.New("AdminMaxFailures must not be negative"))
	}
	return errors.Join(errs...)
}

// PostsDir is where the file backend keeps <slug>.md(x) files.
func (c SiteConfig) PostsDir() string { return filepath.Join(c.ContentDir, "posts") }

// AuthorsDir holds one JSON document per author.
func (c SiteConfig) AuthorsDir() string { return filepath.Join(c.ContentDir, "authors") }

// CategoriesDir holds all.json or one JSON document per category.
func (c SiteConfig) CategoriesDir() string { return filepath.Join(c.ContentDir, "categories") }

// StoreOptions maps the config onto the content backend options.
func (c SiteConfig) StoreOptions() content.Options {
	return content.Options{
		Backend:      c.Backend,
		DatabasePath: c.DatabasePath,
		PostsDir:     c.PostsDir(),
	}
}

// ConfigFromEnv reads a SiteConfig from the process environment. Unset
// variables are left for setDefaults.
func ConfigFromEnv() (SiteConfig, error) {
	cfg := SiteConfig{
		Name:             os.Getenv("SITE_NAME"),
		URL:              os.Getenv("SITE_URL"),
		Description:      os.Getenv("SITE_DESCRIPTION"),
		Addr:             os.Getenv("ADDR"),
		Backend:          os.Getenv("CONTENT_BACKEND"),
		DatabasePath:     os.Getenv("DATABASE_PATH"),
		ContentDir:       os.Getenv("CONTENT_DIR"),
		StaticDir:        os.Getenv("STATIC_DIR"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		AdminMaxFailures: DefaultAdminMaxFailures,
	}
	if v := os.Getenv("POST_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("POST_CACHE_TTL: %w", err)
		}
		cfg.PostCacheTTL = d
	}
	if v := os.Getenv("ADMIN_MAX_FAILURES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("ADMIN_MAX_FAILURES: %w", err)
		}
		cfg.AdminMaxFailures = n
	}
	return cfg, nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger replaces the logger built from SiteConfig.LogLevel.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithStore supplies an already opened content store instead of opening the
// configured backend. The App does not close a supplied store.
func WithStore(s content.Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithClock overrides the clock used for publish decisions.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}
