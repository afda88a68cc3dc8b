package newsdesk

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/eringen/newsdesk/content"
)

// AdminTokenHeader carries the shared admin secret on every /api request.
const AdminTokenHeader = "X-Admin-Token"

type apiError struct {
	Error string `json:"error"`
}

func (a *App) registerAdminRoutes(g *echo.Group) {
	g.Use(middleware.BodyLimit("12M"))
	g.Use(a.requireAdminToken)

	g.GET("/posts", a.handleAPIPosts)
	g.POST("/posts", a.handleAPISavePost)
	g.DELETE("/posts", a.handleAPIDeletePost)
	g.POST("/migrate", a.handleAPIMigrate)
	g.GET("/images", a.handleImageList)
	g.POST("/images", a.handleImageUpload)
	g.DELETE("/images/:filename", a.handleImageDelete)
}

// requireAdminToken rejects requests whose X-Admin-Token does not equal the
// configured secret. Failures count against the caller's IP.
func (a *App) requireAdminToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()
		if a.limiter != nil && !a.limiter.Check(ip) {
			return c.JSON(http.StatusTooManyRequests, apiError{"Too many failed attempts. Try again later."})
		}
		token := c.Request().Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(token), []byte(a.Config.AdminPassword)) != 1 {
			if a.limiter != nil {
				a.limiter.Record(ip)
			}
			a.Log.Warn("admin token rejected",
				zap.String("ip", ip),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
			)
			return c.JSON(http.StatusUnauthorized, apiError{"Unauthorized"})
		}
		return next(c)
	}
}

func (a *App) handleAPIPosts(c echo.Context) error {
	ctx := c.Request().Context()
	if slug := c.QueryParam("slug"); slug != "" {
		post, err := a.Store.Get(ctx, slug)
		if errors.Is(err, content.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"post": nil})
		}
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{"post": post})
	}
	posts, err := a.Store.List(ctx)
	if err != nil {
		return err
	}
	posts = content.SortByPublishDesc(posts)
	if posts == nil {
		posts = []content.Post{}
	}
	return c.JSON(http.StatusOK, map[string]any{"posts": posts})
}

func (a *App) handleAPISavePost(c echo.Context) error {
	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{"invalid JSON body"})
	}
	slug, _ := body["slug"].(string)
	slug = strings.TrimSpace(slug)
	text, _ := body["content"].(string)
	if slug == "" || text == "" {
		return c.JSON(http.StatusBadRequest, apiError{"slug and content are required"})
	}
	delete(body, "slug")
	delete(body, "content")

	err := a.Store.Upsert(c.Request().Context(), slug, content.Frontmatter(body), text)
	switch {
	case errors.Is(err, content.ErrInvalidSlug):
		return c.JSON(http.StatusBadRequest, apiError{"slug may only contain letters, digits, '-' and '_'"})
	case errors.Is(err, content.ErrValidation):
		return c.JSON(http.StatusBadRequest, apiError{err.Error()})
	case err != nil:
		return err
	}
	a.Cache.Invalidate()
	a.Log.Info("post saved", zap.String("slug", slug))
	return c.JSON(http.StatusOK, map[string]any{"success": true, "slug": slug})
}

func (a *App) handleAPIDeletePost(c echo.Context) error {
	slug := strings.TrimSpace(c.QueryParam("slug"))
	if slug == "" {
		return c.JSON(http.StatusBadRequest, apiError{"slug is required"})
	}
	err := a.Store.Delete(c.Request().Context(), slug)
	switch {
	case errors.Is(err, content.ErrInvalidSlug):
		return c.JSON(http.StatusBadRequest, apiError{"invalid slug"})
	case err != nil:
		return err
	}
	a.Cache.Invalidate()
	a.Log.Info("post deleted", zap.String("slug", slug))
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// handleAPIMigrate imports the posts directory into the SQLite document store.
func (a *App) handleAPIMigrate(c echo.Context) error {
	if _, ok := a.Store.(*content.SQLiteStore); !ok {
		return c.JSON(http.StatusBadRequest, apiError{"migration requires the sqlite backend"})
	}
	src := content.NewFileStore(a.Config.PostsDir(), content.WithFileLogger(a.Log.Named("migrate")))
	log := a.Log.Named("migrate")
	migrated, err := content.Migrate(c.Request().Context(), src, a.Store, content.MigrateOptions{
		OnPost: func(slug string) { log.Debug("migrated post", zap.String("slug", slug)) },
	})
	if err != nil {
		log.Error("migration failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, apiError{err.Error()})
	}
	a.Cache.Invalidate()
	log.Info("migration finished", zap.Int("posts", len(migrated)))
	return c.JSON(http.StatusOK, map[string]any{"success": true, "migrated": migrated})
}
