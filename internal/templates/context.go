package templates

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Context keys set by the renderer on top of page fields.
const (
	KeyPages   = "pages"
	KeyGroups  = "groups"
	KeyContent = "content"
	KeyURL     = "url"
)

// ErrReservedGroup is returned when a group key would shadow a reserved context field.
var ErrReservedGroup = errors.New("group name collides with a reserved template field")

// CheckGroupKeys rejects group keys that collide with reserved context fields.
func CheckGroupKeys(keys []string) error {
	for _, k := range keys {
		if slices.Contains(reservedKeys, k) {
			return fmt.Errorf("%w: %q", ErrReservedGroup, k)
		}
	}
	return nil
}

var reservedKeys = []string{KeyPages, KeyGroups, KeyContent, KeyURL}

// ContentData builds the data for a page's content pass:
//
//	{...fields, pages: pages, groups: groups, ...groups}
//
// Flattened group keys are written last, so when collisions are allowed a
// group named like a reserved field replaces it.
func ContentData(fields map[string]any, pages []any, groups map[string]any) map[string]any {
	data := make(map[string]any, len(fields)+len(groups)+2)
	maps.Copy(data, fields)
	data[KeyPages] = pages
	data[KeyGroups] = groups
	maps.Copy(data, groups)
	return data
}

// WrapperData builds the data for the wrapper pass: the page fields with
// content replaced by the rendered HTML.
func WrapperData(fields map[string]any, html string) map[string]any {
	data := make(map[string]any, len(fields)+1)
	maps.Copy(data, fields)
	data[KeyContent] = html
	return data
}
