// Package templates renders logic-less mustache templates against page data.
//
// Both rendering passes of a build go through this package: the content pass,
// where a page body is itself a template over the whole site, and the wrapper
// pass, where the shared layout receives the page's rendered HTML.
package templates

import (
	"fmt"

	"github.com/cbroglie/mustache"
)

// Template is a parsed mustache template. A Template is immutable and may be
// rendered any number of times.
type Template struct {
	name string
	tpl  *mustache.Template
}

// noPartials resolves every partial tag to the empty string, so templates
// never read from disk.
var noPartials = &mustache.StaticProvider{}

// Compile parses text as a mustache template. Partial tags ({{> name}})
// render empty.
func Compile(name, text string) (*Template, error) {
	tpl, err := mustache.ParseStringPartials(text, noPartials)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return &Template{name: name, tpl: tpl}, nil
}

// Name identifies the template in errors.
func (t *Template) Name() string { return t.name }

// Render executes the template. Missing variables render as empty strings.
func (t *Template) Render(data map[string]any) (string, error) {
	out, err := t.tpl.Render(data)
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", t.name, err)
	}
	return out, nil
}

// RenderString compiles and renders text in one step.
func RenderString(name, text string, data map[string]any) (string, error) {
	tpl, err := Compile(name, text)
	if err != nil {
		return "", err
	}
	return tpl.Render(data)
}
