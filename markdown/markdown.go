// Package markdown renders post bodies to HTML with goldmark. Raw HTML in the
// source is omitted and unsafe link schemes are dropped by the renderer.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
		parser.WithASTTransformers(util.Prioritized(mediaAttrs{}, 100)),
	),
)

// Markdown returns a templ component that writes the rendered body.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return md.Convert([]byte(content), w)
	})
}

// HTML renders content to an HTML string. On a conversion error the escaped
// source is returned so a broken post still shows its text.
func HTML(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return html.EscapeString(content)
	}
	return buf.String()
}

// mediaAttrs loads the first image eagerly and the rest lazily, and opens
// absolute links in a new tab.
type mediaAttrs struct{}

func (mediaAttrs) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	images := 0
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			images++
			if images == 1 {
				node.SetAttributeString("loading", []byte("eager"))
			} else {
				node.SetAttributeString("loading", []byte("lazy"))
			}
			node.SetAttributeString("decoding", []byte("async"))
		case *ast.Link:
			if isExternal(node.Destination) {
				node.SetAttributeString("target", []byte("_blank"))
				node.SetAttributeString("rel", []byte("noopener noreferrer"))
			}
		}
		return ast.WalkContinue, nil
	})
}

func isExternal(dest []byte) bool {
	d := strings.ToLower(string(dest))
	return strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://")
}
