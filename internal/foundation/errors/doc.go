// Package errors provides the classified error primitives used across mdsite.
//
// Every stage of a build wraps its failures in a ClassifiedError so the CLI can
// report which stage failed and for which file, while the underlying cause stays
// reachable through errors.Is and errors.As.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFrontmatter, "parse front matter").
//		WithContext("path", sourcePath).
//		Build()
package errors
