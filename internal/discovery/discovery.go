// Package discovery expands include/exclude glob patterns into the sorted list
// of source files a build consumes.
package discovery

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
)

// negation marks an exclusion pattern.
const negation = "!"

// Discoverer finds files under a root directory.
type Discoverer struct {
	fsys     fs.FS
	include  []string
	exclude  []string
	patterns []string
}

// New creates a Discoverer rooted at dir. Patterns are slash separated; a
// leading "!" turns a pattern into an exclusion. Exclusions win over any
// inclusion no matter where they appear in the list.
func New(dir string, patterns []string) *Discoverer {
	return NewFS(os.DirFS(dir), patterns)
}

// NewFS creates a Discoverer over an arbitrary filesystem.
func NewFS(fsys fs.FS, patterns []string) *Discoverer {
	d := &Discoverer{fsys: fsys, patterns: patterns}
	for _, p := range patterns {
		if rest, ok := strings.CutPrefix(p, negation); ok {
			d.exclude = append(d.exclude, clean(rest))
			continue
		}
		d.include = append(d.include, clean(p))
	}
	return d
}

func clean(p string) string {
	return strings.TrimPrefix(p, "./")
}

// Validate reports the first malformed pattern.
func (d *Discoverer) Validate() error {
	for _, p := range slices.Concat(d.include, d.exclude) {
		if !doublestar.ValidatePattern(p) {
			return errors.WrapError(doublestar.ErrBadPattern, errors.CategoryConfig, "invalid glob pattern").
				Fatal().
				WithContext("pattern", p).
				Build()
		}
	}
	return nil
}

// Discover walks the filesystem and returns every file matching an include
// pattern and no exclude pattern, sorted lexicographically. Wildcards never
// match a path segment starting with "."; a pattern segment that itself
// starts with "." does. Symlinks to regular files are followed, symlinked
// directories are not descended. No matches is not an error.
func (d *Discoverer) Discover(ctx context.Context) ([]string, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	walkHidden := slices.ContainsFunc(d.include, hasDotSegment)

	var files []string
	err := fs.WalkDir(d.fsys, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == "." {
			return nil
		}

		if entry.IsDir() {
			if hidden(entry.Name()) && !walkHidden {
				return fs.SkipDir
			}
			if pattern, ok := d.excludedBy(path); ok {
				slog.Debug("Skipping excluded directory", logfields.Path(path), logfields.Pattern(pattern))
				return fs.SkipDir
			}
			return nil
		}

		if !d.isFile(path, entry) {
			return nil
		}
		if d.included(path) {
			if _, ok := d.excludedBy(path); !ok {
				files = append(files, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDiscovery, "failed to walk source tree").
			Fatal().
			Build()
	}

	slices.Sort(files)
	slog.Debug("Discovered source files", logfields.Count(len(files)), slog.Any("patterns", d.patterns))
	return files, nil
}

// isFile reports whether entry is a regular file or a symlink resolving to one.
func (d *Discoverer) isFile(path string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := fs.Stat(d.fsys, path)
	return err == nil && info.Mode().IsRegular()
}

func (d *Discoverer) included(path string) bool {
	segments := strings.Split(path, "/")
	for _, p := range d.include {
		if matchSegments(strings.Split(p, "/"), segments) {
			return true
		}
	}
	return false
}

// excludedBy returns the first exclude pattern matching path. Exclusions
// match hidden segments too.
func (d *Discoverer) excludedBy(path string) (string, bool) {
	for _, p := range d.exclude {
		// Patterns were validated up front, so Match cannot fail here.
		if ok, _ := doublestar.Match(p, path); ok {
			return p, true
		}
	}
	return "", false
}

// matchSegments matches a split pattern against a split path. "**" spans any
// number of segments but never a hidden one, and a hidden segment only
// matches a pattern segment that also starts with ".".
func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	if pattern[0] == "**" {
		if matchSegments(pattern[1:], path) {
			return true
		}
		return len(path) > 0 && !hidden(path[0]) && matchSegments(pattern, path[1:])
	}
	if len(path) == 0 {
		return false
	}
	if hidden(path[0]) && !hidden(pattern[0]) {
		return false
	}
	if ok, _ := doublestar.Match(pattern[0], path[0]); !ok {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}

func hidden(segment string) bool {
	return strings.HasPrefix(segment, ".")
}

func hasDotSegment(pattern string) bool {
	return slices.ContainsFunc(strings.Split(pattern, "/"), hidden)
}
