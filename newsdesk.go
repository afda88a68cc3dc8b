// Package newsdesk is a financial news site engine built with Go, Echo and
// templ. It serves the public article surface (home, category, tag, author,
// article, search, RSS) and a token gated JSON content API over a pluggable
// content store.
//
// Users provide their own templ components via the ViewFuncs struct; any page
// without a component is served as JSON.
package newsdesk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/newsdesk/content"
	"github.com/eringen/newsdesk/views"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. A nil entry makes the page respond with its model as
// JSON.
type ViewFuncs struct {
	Home        func(page views.HomePage) templ.Component
	Category    func(page views.CategoryPage) templ.Component
	Tag         func(page views.TagPage) templ.Component
	Author      func(page views.AuthorPage) templ.Component
	Post        func(page views.PostPage) templ.Component
	Search      func(page views.SearchPage) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central newsdesk application. It wires together the content
// store, cache, query layer, registries, handlers, middleware and
// user-provided templates.
type App struct {
	Config     SiteConfig
	Echo       *echo.Echo
	Store      content.Store
	Cache      *PostCache
	Query      *content.Query
	Authors    *content.Authors
	Categories *content.Categories
	Views      ViewFuncs
	Log        *zap.Logger

	limiter      *TokenLimiter
	customRoutes []func(*App)
	now          func() time.Time
	ownsStore    bool
	ready        bool
}

// New creates a new App with the given configuration and view functions.
// Nothing is opened until Setup, Start or Run.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config: cfg,
		Echo:   e,
		Views:  views,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup validates the config, opens the content store, loads the author and
// category registries and registers middleware and routes. It is called by
// Start and Run; tests call it directly and drive a.Echo.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("newsdesk: %w", err)
	}

	if a.Log == nil {
		log, err := NewLogger(a.Config.LogLevel)
		if err != nil {
			return fmt.Errorf("newsdesk: %w", err)
		}
		a.Log = log
	}

	if a.Store == nil {
		opts := a.Config.StoreOptions()
		opts.Logger = a.Log.Named("store")
		store, err := content.Open(opts)
		if err != nil {
			return fmt.Errorf("newsdesk: init store: %w", err)
		}
		a.Store = store
		a.ownsStore = true
	}

	authors, err := content.LoadAuthors(a.Config.AuthorsDir())
	if err != nil {
		return fmt.Errorf("newsdesk: load authors: %w", err)
	}
	a.Authors = authors
	categories, err := content.LoadCategories(a.Config.CategoriesDir())
	if err != nil {
		return fmt.Errorf("newsdesk: load categories: %w", err)
	}
	a.Categories = categories

	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.Query = content.NewQuery(a.Cache,
		content.WithClock(a.now),
		content.WithLogger(a.Log.Named("query")),
	)

	if a.Config.AdminMaxFailures > 0 {
		a.limiter = NewTokenLimiter(a.Config.AdminMaxFailures, time.Minute)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.Log.Info("newsdesk ready",
		zap.String("backend", a.Config.Backend),
		zap.Int("authors", a.Authors.Len()),
		zap.Int("categories", a.Categories.Len()),
	)
	a.ready = true
	return nil
}

// Start sets the app up and serves until the server fails.
func (a *App) Start() error {
	return a.Run(context.Background())
}

// Run serves HTTP until ctx is cancelled, then shuts the server down
// gracefully. With the file backend it also watches the posts directory and
// drops the post cache on change.
func (a *App) Run(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("listening", zap.String("addr", a.Config.Addr))
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("newsdesk: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Echo.Shutdown(shutdownCtx)
	})
	if fs, ok := a.Store.(*content.FileStore); ok {
		w := NewPostsWatcher(fs.Dir(), a.Cache.Invalidate, a.Log.Named("watcher"))
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.Static("/images", filepath.Join(a.Config.StaticDir, "images"))

	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/category/:slug/", a.handleCategory)
	e.GET("/tag/:slug/", a.handleTag)
	e.GET("/author/:slug/", a.handleAuthor)
	e.GET("/post/:slug/", a.handlePost)
	e.GET("/search/", a.handleSearch)

	a.registerAdminRoutes(e.Group("/api"))
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	var err error
	if a.Store != nil && a.ownsStore {
		err = a.Store.Close()
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
	return err
}
