package newsdesk

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/newsdesk/content"
	"github.com/eringen/newsdesk/views"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Author      string   `xml:"author,omitempty"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
}

func (a *App) renderRSS(c echo.Context, posts []content.Post) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := views.BuildURL(base, "post", p.Slug)
		item := rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Excerpt,
			Categories:  p.Categories,
			PubDate:     p.PublishAt.UTC().Format(time.RFC1123Z),
			GUID:        postURL,
		}
		if author, ok := a.Authors.Get(p.Author); ok {
			item.Author = author.Name
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	if len(posts) > 0 {
		feed.Channel.LastBuildDate = posts[0].PublishAt.UTC().Format(time.RFC1123Z)
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(feed)
}
