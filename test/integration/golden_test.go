package integration

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/config"
)

var updateGolden = flag.Bool("update-golden", false, "Update golden files")

// TestGolden_BasicSite builds a small site end to end.
// This test verifies:
// - one page per matched source, excluded and hidden trees skipped
// - slug and extension-stripped URLs
// - content templates listing a group
// - heading anchors and raw HTML passthrough.
func TestGolden_BasicSite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	siteDir := setupTestSite(t, "../../test/testdata/sites/basic")
	result, stdout := buildSite(t, siteDir, nil)

	require.Empty(t, stdout)
	require.Equal(t, []string{"about.md", "blog/first.md", "blog/second.md", "index.md"}, result.Sources)
	require.Len(t, result.Outputs, 4)

	verifyGoldenOutputs(t, filepath.Join(siteDir, "dist"), "../../test/testdata/golden/basic", *updateGolden)
}

func TestGolden_RebuildIsByteIdentical(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	siteDir := setupTestSite(t, "../../test/testdata/sites/basic")
	outDir := filepath.Join(siteDir, "dist")

	buildSite(t, siteDir, nil)
	first := collectOutputs(t, outDir)
	buildSite(t, siteDir, nil)
	second := collectOutputs(t, outDir)

	require.Equal(t, first, second)
}

func TestGolden_DryRunListsEveryPage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	siteDir := setupTestSite(t, "../../test/testdata/sites/basic")
	result, stdout := buildSite(t, siteDir, func(cfg *config.Config) { cfg.DryRun = true })

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, len(result.Outputs))
	for i, out := range result.Outputs {
		require.Equal(t, "save "+out, lines[i])
	}
	verifyGoldenOutputs(t, filepath.Join(siteDir, "dist"), "../../test/testdata/golden/basic", false)
}

func TestGolden_StaleOutputsAreKept(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	siteDir := setupTestSite(t, "../../test/testdata/sites/basic")
	stale := filepath.Join(siteDir, "dist", "removed.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o750))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	buildSite(t, siteDir, nil)

	require.FileExists(t, stale)
}
