package integration

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/build"
	"git.home.luguber.info/inful/mdsite/internal/config"
)

// setupTestSite copies a fixture site into a fresh temporary directory so
// builds never write into testdata.
func setupTestSite(t *testing.T, sitePath string) string {
	t.Helper()

	tmpDir := t.TempDir()
	require.NoError(t, copyDir(sitePath, tmpDir), "failed to copy test site")
	return tmpDir
}

// copyDir recursively copies a directory tree.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(dst, relPath)

		if entry.IsDir() {
			return os.MkdirAll(targetPath, 0o750)
		}
		return copyFile(path, targetPath)
	})
}

// copyFile copies a single file.
func copyFile(src, dst string) error {
	// #nosec G304 -- test utility with paths from test setup, not user input
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- test utility with paths from test setup, not user input
	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	_, err = io.Copy(dstFile, srcFile)
	return err
}

// buildSite runs a full build rooted at siteDir and returns the result and
// captured stdout.
func buildSite(t *testing.T, siteDir string, mutate func(*config.Config)) (*build.Result, string) {
	t.Helper()

	cfg := config.Default()
	cfg.Root = siteDir
	if mutate != nil {
		mutate(cfg)
	}

	var stdout bytes.Buffer
	result, err := build.NewService(cfg, build.WithStdout(&stdout)).Run(context.Background())
	require.NoError(t, err, "build failed")
	return result, stdout.String()
}

// collectOutputs reads every generated .html file under outDir keyed by its
// slash-separated relative path.
func collectOutputs(t *testing.T, outDir string) map[string]string {
	t.Helper()

	files := map[string]string{}
	err := filepath.WalkDir(outDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		rel, err := filepath.Rel(outDir, path)
		if err != nil {
			return err
		}
		// #nosec G304 -- test utility reading from test output directory
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err, "failed to walk output directory")
	return files
}

// verifyGoldenOutputs compares generated pages with the golden directory, or
// rewrites the golden directory when updateGolden is set.
func verifyGoldenOutputs(t *testing.T, outDir, goldenDir string, updateGolden bool) {
	t.Helper()

	actual := collectOutputs(t, outDir)

	if updateGolden {
		require.NoError(t, os.RemoveAll(goldenDir), "failed to clear golden directory")
		for rel, content := range actual {
			target := filepath.Join(goldenDir, filepath.FromSlash(rel))
			require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o750))
			require.NoError(t, os.WriteFile(target, []byte(content), 0o600))
		}
		t.Logf("Updated golden directory: %s", goldenDir)
		return
	}

	expected := collectOutputs(t, goldenDir)
	require.Equal(t, sortedKeys(expected), sortedKeys(actual), "generated page set mismatch")
	for rel, want := range expected {
		require.Equal(t, want, actual[rel], "page %s differs from golden", rel)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
