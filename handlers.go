package newsdesk

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/newsdesk/content"
	"github.com/eringen/newsdesk/markdown"
	"github.com/eringen/newsdesk/views"
)

// Page sizes of the public surface.
const (
	homeFeatured  = 4
	homeLatest    = 12
	homeStripSize = 6
	postRelated   = 3
	feedSize      = 20
)

func (a *App) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
	}
}

func (a *App) pageMeta(title, description string, segments ...string) views.PageMeta {
	if title == "" {
		title = a.Config.Name
	} else {
		title += " | " + a.Config.Name
	}
	if description == "" {
		description = a.Config.Description
	}
	return views.PageMeta{
		Title:       title,
		Description: description,
		URL:         views.BuildURL(a.Config.URL, segments...),
		OGType:      "website",
	}
}

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	categories := a.Categories.All()
	page := views.HomePage{
		Site:       a.site(),
		Meta:       a.pageMeta("", ""),
		Featured:   summaries(a.Query.Featured(ctx, homeFeatured)),
		Latest:     summaries(a.Query.Latest(ctx, homeLatest)),
		Strips:     []views.CategoryStrip{},
		Categories: categories,
	}
	for _, cat := range categories {
		posts := a.Query.ByCategory(ctx, cat.Slug, homeStripSize)
		if len(posts) == 0 {
			continue
		}
		page.Strips = append(page.Strips, views.CategoryStrip{Category: cat, Posts: summaries(posts)})
	}
	return renderPage(c, http.StatusOK, a.Views.Home, page)
}

func (a *App) handleCategory(c echo.Context) error {
	cat, ok := a.Categories.Get(c.Param("slug"))
	if !ok {
		return echo.ErrNotFound
	}
	posts := a.Query.ByCategory(c.Request().Context(), cat.Slug, 0)
	return renderPage(c, http.StatusOK, a.Views.Category, views.CategoryPage{
		Site:     a.site(),
		Meta:     a.pageMeta(cat.Name, cat.Description, "category", cat.Slug),
		Category: cat,
		Posts:    summaries(posts),
	})
}

func (a *App) handleTag(c echo.Context) error {
	slug := c.Param("slug")
	tag := content.TagFromSlug(slug)
	posts := a.Query.ByTag(c.Request().Context(), tag)
	return renderPage(c, http.StatusOK, a.Views.Tag, views.TagPage{
		Site:  a.site(),
		Meta:  a.pageMeta("#"+tag, "", "tag", slug),
		Tag:   tag,
		Posts: summaries(posts),
	})
}

func (a *App) handleAuthor(c echo.Context) error {
	author, ok := a.Authors.Get(c.Param("slug"))
	if !ok {
		return echo.ErrNotFound
	}
	posts := a.Query.ByAuthor(c.Request().Context(), author.Slug)
	return renderPage(c, http.StatusOK, a.Views.Author, views.AuthorPage{
		Site:   a.site(),
		Meta:   a.pageMeta(author.Name, author.Bio, "author", author.Slug),
		Author: author,
		Posts:  summaries(posts),
	})
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, ok := a.Query.Post(ctx, c.Param("slug"))
	if !ok {
		return echo.ErrNotFound
	}

	page := views.PostPage{
		Site:    a.site(),
		Meta:    a.postMeta(post),
		Post:    post,
		HTML:    markdown.HTML(post.Content),
		Related: summaries(a.Query.Related(ctx, post, postRelated)),
	}
	if author, ok := a.Authors.Get(post.Author); ok {
		page.Author = &author
	}
	return renderPage(c, http.StatusOK, a.Views.Post, page)
}

func (a *App) postMeta(post content.Post) views.PageMeta {
	title := post.MetaTitle
	if title == "" {
		title = post.Title
	}
	desc := post.MetaDescription
	if desc == "" {
		desc = post.Excerpt
	}
	meta := a.pageMeta(title, desc, "post", post.Slug)
	meta.OGType = "article"
	meta.Image = post.OGImage
	if meta.Image == "" {
		meta.Image = post.CoverImage
	}
	return meta
}

func (a *App) handleSearch(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	results := a.Query.Search(c.Request().Context(), q)
	return renderPage(c, http.StatusOK, a.Views.Search, views.SearchPage{
		Site:    a.site(),
		Meta:    a.pageMeta("Search", "", "search"),
		Query:   q,
		Results: summaries(results),
	})
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, a.Query.Latest(c.Request().Context(), feedSize))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	isAPI := strings.HasPrefix(c.Request().URL.Path, "/api/")

	switch {
	case code == http.StatusNotFound && !isAPI:
		if a.Views.NotFound != nil {
			_ = RenderStatus(c, code, a.Views.NotFound())
			return
		}
		_ = c.JSON(code, apiError{"Not Found"})
	case code >= 500:
		a.Log.Error("server error",
			zap.Error(err),
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
		)
		if a.Views.ServerError != nil && !isAPI {
			_ = RenderStatus(c, code, a.Views.ServerError())
			return
		}
		_ = c.JSON(code, apiError{http.StatusText(code)})
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
