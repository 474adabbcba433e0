// Package output writes rendered pages under the site output directory.
package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
)

const (
	ext      = ".html"
	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer places rendered pages at outDir/<url>.html.
type Writer struct {
	outDir string
	dryRun bool
	stdout io.Writer
}

// NewWriter creates a Writer. When dryRun is set every destination path is
// printed to stdout before the file is written; files are written either way.
func NewWriter(outDir string, dryRun bool, stdout io.Writer) *Writer {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Writer{outDir: outDir, dryRun: dryRun, stdout: stdout}
}

// Dest returns the file a page URL is written to.
func (w *Writer) Dest(url string) string {
	return filepath.Join(w.outDir, filepath.FromSlash(url+ext))
}

// Write creates any missing parent directories and overwrites the page file.
// It returns the destination path.
func (w *Writer) Write(url string, html []byte) (string, error) {
	dest := w.Dest(url)

	if w.dryRun {
		if _, err := fmt.Fprintln(w.stdout, "save", dest); err != nil {
			return "", errors.FileSystemError(err, "failed to report output path").
				WithContext("path", dest).
				Build()
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return "", errors.FileSystemError(err, "failed to create output directory").
			WithContext("path", dest).
			Build()
	}

	// #nosec G306 -- generated site files are meant to be world readable.
	if err := os.WriteFile(dest, html, filePerm); err != nil {
		return "", errors.FileSystemError(err, "failed to write page").
			WithContext("path", dest).
			Build()
	}

	slog.Debug("Wrote page", logfields.URL(url), logfields.Output(dest))
	return dest, nil
}
