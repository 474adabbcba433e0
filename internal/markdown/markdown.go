// Package markdown converts page markdown to HTML with deterministic heading anchors.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Options selects the parser features used for every page of a build.
type Options struct {
	// HTML passes raw inline and block HTML through to the output.
	HTML bool
	// Linkify turns bare URLs into links.
	Linkify bool
	// Typographer replaces quotes, dashes and ellipses with typographic forms.
	Typographer bool
}

// Converter renders markdown to HTML. It is safe to reuse across pages.
type Converter struct {
	md goldmark.Markdown
}

// New builds a Converter. Tables and strikethrough are always enabled and
// every heading receives an id produced by Slugify.
func New(opts Options) *Converter {
	exts := []goldmark.Extender{extension.Table, extension.Strikethrough}
	if opts.Linkify {
		exts = append(exts, extension.Linkify)
	}
	if opts.Typographer {
		exts = append(exts, extension.Typographer)
	}

	gmOpts := []goldmark.Option{
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithASTTransformers(util.Prioritized(headingIDs{}, 100))),
	}
	if opts.HTML {
		gmOpts = append(gmOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	md := goldmark.New(gmOpts...)

	return &Converter{md: md}
}

// Convert renders src to HTML.
func (c *Converter) Convert(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
