// Package page builds the per-file page records a site is rendered from.
package page

import (
	"fmt"
	"maps"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/frontmatter"
)

// Reserved field names a page exposes to templates.
const (
	FieldContent = "content"
	FieldURL     = "url"
	FieldSlug    = "slug"
	FieldType    = "type"
)

const sourceExt = ".md"

// Page is a parsed source file: its front matter, raw body and output URL.
//
// A Page is read-only once constructed.
type Page struct {
	source  string
	meta    map[string]any
	content string
	url     string
}

// New assembles a Page from a source path (slash separated, relative to the
// site root) and its parsed document.
func New(source string, doc frontmatter.Document) *Page {
	meta := doc.Fields
	if meta == nil {
		meta = map[string]any{}
	}
	return &Page{
		source:  source,
		meta:    meta,
		content: string(doc.Body),
		url:     URLFor(source, meta),
	}
}

// LoadFile reads root/source and parses it into a Page.
func LoadFile(root, source string) (*Page, error) {
	full := filepath.Join(root, filepath.FromSlash(source))
	// #nosec G304 -- source comes from discovery under the configured root.
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, errors.FileSystemError(err, "failed to read source").
			WithContext("path", source).
			Build()
	}

	doc, err := frontmatter.Parse(content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFrontmatter, "failed to parse front matter").
			Fatal().
			WithContext("path", source).
			Build()
	}
	return New(source, doc), nil
}

// URLFor derives the output URL of a source file.
//
// A truthy slug is joined onto the source directory; otherwise a literal
// trailing ".md" is stripped from the source path.
func URLFor(source string, meta map[string]any) string {
	if slug, ok := meta[FieldSlug]; ok && truthy(slug) {
		return path.Join(path.Dir(source), fmt.Sprint(slug))
	}
	return strings.TrimSuffix(source, sourceExt)
}

func (p *Page) Source() string  { return p.source }
func (p *Page) URL() string     { return p.url }
func (p *Page) Content() string { return p.content }

// Meta returns a front-matter value.
func (p *Page) Meta(key string) (any, bool) {
	v, ok := p.meta[key]
	return v, ok
}

// Slug returns the front-matter slug when it is set to a truthy value.
func (p *Page) Slug() (string, bool) {
	v, ok := p.Meta(FieldSlug)
	if !ok || !truthy(v) {
		return "", false
	}
	return fmt.Sprint(v), true
}

// Type returns the front-matter type. A missing or null type reports false.
func (p *Page) Type() (string, bool) {
	v, ok := p.Meta(FieldType)
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

// Fields returns a fresh shallow copy of the page as template data: every
// front-matter field plus content and url, which override same-named keys.
func (p *Page) Fields() map[string]any {
	fields := make(map[string]any, len(p.meta)+2)
	maps.Copy(fields, p.meta)
	fields[FieldContent] = p.content
	fields[FieldURL] = p.url
	return fields
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case float64:
		return val != 0 && !math.IsNaN(val)
	default:
		return true
	}
}
