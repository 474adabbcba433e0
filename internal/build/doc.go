// Package build runs the site pipeline.
//
// A build is strictly sequential: discover sources, parse every page, group
// pages by type, then render and write each page in discovery order. Every
// page is parsed before the first one is rendered because content templates
// can list the whole site. The first error stops the build; pages already
// written stay on disk.
package build
