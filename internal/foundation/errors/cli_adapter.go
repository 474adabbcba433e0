package errors

import (
	"fmt"
	"io"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
// It prints a one-line summary and exits; it does not log.
type CLIErrorAdapter struct {
	verbose bool
	stderr  io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool) *CLIErrorAdapter {
	return &CLIErrorAdapter{
		verbose: verbose,
		stderr:  os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor returns 0 for nil and 1 for every failure.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// FormatError formats an error for display on stderr.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	classified, ok := AsClassified(err)
	if !ok || a.verbose {
		return fmt.Sprintf("Error: %v", err)
	}

	msg := fmt.Sprintf("Error: %s failed: %s", classified.Category(), classified.Message())
	if path, ok := classified.Context().GetString("path"); ok {
		msg += " (" + path + ")"
	}
	if cause := classified.Cause(); cause != nil {
		msg += ": " + cause.Error()
	}
	return msg
}

// HandleError prints err to stderr and exits with a non-zero status.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	_, _ = fmt.Fprintln(a.stderr, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}
