// Package group partitions pages into buckets keyed by their front-matter type.
package group

import "git.home.luguber.info/inful/mdsite/internal/page"

// Untyped is the group key for pages without a type.
const Untyped = "?"

// Index maps group keys to pages in discovery order. Keys keep the order in
// which they were first seen.
type Index struct {
	keys   []string
	groups map[string][]*page.Page
}

// Key returns the group key for p.
func Key(p *page.Page) string {
	if t, ok := p.Type(); ok {
		return t
	}
	return Untyped
}

// Build groups pages by Key, preserving their relative order.
func Build(pages []*page.Page) *Index {
	idx := &Index{groups: make(map[string][]*page.Page)}
	for _, p := range pages {
		k := Key(p)
		if _, seen := idx.groups[k]; !seen {
			idx.keys = append(idx.keys, k)
		}
		idx.groups[k] = append(idx.groups[k], p)
	}
	return idx
}

// Keys returns the group keys in first-seen order.
func (i *Index) Keys() []string {
	return append([]string(nil), i.keys...)
}

// Pages returns the pages of one group, or nil.
func (i *Index) Pages(key string) []*page.Page {
	return i.groups[key]
}

// Len returns the number of groups.
func (i *Index) Len() int { return len(i.keys) }

// Context converts the index into template data: each key maps to the
// Fields of its pages.
func (i *Index) Context() map[string]any {
	out := make(map[string]any, len(i.keys))
	for _, k := range i.keys {
		out[k] = FieldsOf(i.groups[k])
	}
	return out
}

// FieldsOf converts pages into a template-ready list.
func FieldsOf(pages []*page.Page) []any {
	out := make([]any, len(pages))
	for n, p := range pages {
		out[n] = p.Fields()
	}
	return out
}
