package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/templates"
)

const testWrapper = "<html><head><title>{{title}}</title></head><body>{{{content}}}</body></html>\n"

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o600))
	}
	return root
}

func siteConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Root = root
	return cfg
}

func readOutput(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "dist", filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func sampleSite(t *testing.T) string {
	return writeSite(t, map[string]string{
		"wrapper.html": testWrapper,
		"index.md": "---\ntitle: Home\n---\n# Welcome\n\n" +
			"{{#groups.post}}\n- [{{title}}]({{url}})\n{{/groups.post}}\n",
		"about.md":          "---\ntitle: About\nslug: about-us\n---\nAbout {{title}}.\n",
		"blog/first.md":     "---\ntitle: First\ntype: post\nslug: hello\n---\nFirst post.\n",
		"blog/second.md":    "---\ntitle: Second\ntype: post\n---\nSecond post.\n",
		"node_modules/x.md": "# ignored\n",
		"dist/stale.md":     "# ignored\n",
	})
}

func TestRun_WritesOnePagePerSource(t *testing.T) {
	root := sampleSite(t)

	result, err := NewService(siteConfig(root), WithStdout(&bytes.Buffer{})).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, []string{"about.md", "blog/first.md", "blog/second.md", "index.md"}, result.Sources)
	require.Len(t, result.Outputs, len(result.Sources))
	require.Equal(t, []string{"?", "post"}, result.Groups)

	for _, rel := range []string{"about-us.html", "blog/hello.html", "blog/second.html", "index.html"} {
		require.FileExists(t, filepath.Join(root, "dist", filepath.FromSlash(rel)))
	}
	require.NoFileExists(t, filepath.Join(root, "dist", "node_modules", "x.html"))
	require.NoFileExists(t, filepath.Join(root, "dist", "dist", "stale.html"))
}

func TestRun_RendersContentAndWrapper(t *testing.T) {
	root := sampleSite(t)

	_, err := NewService(siteConfig(root), WithStdout(&bytes.Buffer{})).Run(context.Background())
	require.NoError(t, err)

	about := readOutput(t, root, "about-us.html")
	require.True(t, strings.HasPrefix(about, "<html><head><title>About</title></head><body>"))
	require.Contains(t, about, "<p>About About.</p>")

	index := readOutput(t, root, "index.html")
	require.Contains(t, index, `<h1 id="welcome">Welcome</h1>`)
	require.Contains(t, index, `<a href="blog/hello">First</a>`)
	require.Contains(t, index, `<a href="blog/second">Second</a>`)
	require.Less(t, strings.Index(index, "First"), strings.Index(index, "Second"))
}

func TestRun_FlattenedGroupKeys(t *testing.T) {
	root := writeSite(t, map[string]string{
		"wrapper.html": "{{{content}}}",
		"a.md":         "---\ntype: note\ntitle: A\n---\nA\n",
		"b.md":         "---\ntype: note\ntitle: B\n---\nB\n",
		"list.md":      "{{#note}}{{title}};{{/note}} untyped={{#?}}{{url}}{{/?}} total={{#pages}}x{{/pages}}\n",
	})

	_, err := NewService(siteConfig(root), WithStdout(&bytes.Buffer{})).Run(context.Background())
	require.NoError(t, err)

	list := readOutput(t, root, "list.html")
	require.Contains(t, list, "A;B;")
	require.Contains(t, list, "untyped=list")
	require.Contains(t, list, "total=xxx")
}

func TestRun_PartialTagsRenderEmpty(t *testing.T) {
	root := writeSite(t, map[string]string{
		"wrapper.html": "<body>{{{content}}}</body>{{> secret.txt}}",
		"secret.txt":   "TOPSECRET",
		"a.md":         "before [{{> secret.txt}}] after\n",
	})
	t.Chdir(root)

	_, err := NewService(siteConfig(root), WithStdout(&bytes.Buffer{})).Run(context.Background())
	require.NoError(t, err)

	out := readOutput(t, root, "a.html")
	require.Equal(t, "<body><p>before [] after</p>\n</body>", out)
	require.NotContains(t, out, "TOPSECRET")
}

func TestRun_Idempotent(t *testing.T) {
	root := sampleSite(t)
	svc := NewService(siteConfig(root), WithStdout(&bytes.Buffer{}))

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	snapshot := map[string][]byte{}
	for _, out := range first.Outputs {
		data, readErr := os.ReadFile(out)
		require.NoError(t, readErr)
		snapshot[out] = data
	}

	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.Outputs, second.Outputs)
	require.NotEqual(t, first.BuildID, second.BuildID)
	for _, out := range second.Outputs {
		data, readErr := os.ReadFile(out)
		require.NoError(t, readErr)
		require.Equal(t, snapshot[out], data, out)
	}
}

func TestRun_DryRunPrintsEachDestination(t *testing.T) {
	root := sampleSite(t)
	cfg := siteConfig(root)
	cfg.DryRun = true
	var stdout bytes.Buffer

	result, err := NewService(cfg, WithStdout(&stdout)).Run(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, len(result.Outputs))
	for i, out := range result.Outputs {
		require.Equal(t, "save "+out, lines[i])
		require.FileExists(t, out)
	}
}

func TestRun_QuietWithoutDryRun(t *testing.T) {
	root := sampleSite(t)
	var stdout bytes.Buffer

	_, err := NewService(siteConfig(root), WithStdout(&stdout)).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, stdout.String())
}

func TestRun_EmptySiteSucceeds(t *testing.T) {
	root := writeSite(t, map[string]string{"wrapper.html": testWrapper})

	result, err := NewService(siteConfig(root)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Empty(t, result.Sources)
	require.Empty(t, result.Outputs)
}

func TestRun_InvalidFrontMatterWritesNothing(t *testing.T) {
	root := writeSite(t, map[string]string{
		"wrapper.html": testWrapper,
		"a.md":         "# fine\n",
		"b.md":         "---\ntitle: broken\n# no closing marker\n",
	})

	result, err := NewService(siteConfig(root)).Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryFrontmatter))
	require.Equal(t, StatusFailed, result.Status)
	require.Empty(t, result.Outputs)
	require.NoDirExists(t, filepath.Join(root, "dist"))
}

func TestRun_MissingWrapper(t *testing.T) {
	root := writeSite(t, map[string]string{"a.md": "# A\n"})

	_, err := NewService(siteConfig(root)).Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestRun_MalformedContentTemplate(t *testing.T) {
	root := writeSite(t, map[string]string{
		"wrapper.html": testWrapper,
		"a.md":         "{{#open}} never closed\n",
	})

	_, err := NewService(siteConfig(root)).Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestRun_ReservedGroupName(t *testing.T) {
	files := map[string]string{
		"wrapper.html": "{{{content}}}",
		"a.md":         "---\ntype: pages\n---\n{{#pages}}{{url}}{{/pages}}\n",
	}

	_, err := NewService(siteConfig(writeSite(t, files))).Run(context.Background())
	require.ErrorIs(t, err, templates.ErrReservedGroup)

	cfg := siteConfig(writeSite(t, files))
	cfg.AllowGroupOverride = true
	result, err := NewService(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Outputs, 1)
}

func TestRun_CancelledContext(t *testing.T) {
	root := sampleSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewService(siteConfig(root)).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusCancelled, result.Status)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.OutDir = ""

	result, err := NewService(cfg).Run(context.Background())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.Equal(t, StatusFailed, result.Status)
}

func TestRun_UsesBuildIDFunc(t *testing.T) {
	root := writeSite(t, map[string]string{"wrapper.html": testWrapper})

	result, err := NewService(siteConfig(root), WithBuildIDFunc(func() string { return "build-1" })).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "build-1", result.BuildID)
}

type fakeRecorder struct {
	mu         sync.Mutex
	stages     map[string]int
	failed     []string
	outcomes   []metrics.ResultLabel
	discovered int
	written    map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{stages: map[string]int{}, written: map[string]int{}}
}

func (f *fakeRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages[stage]++
}

func (f *fakeRecorder) ObserveBuildDuration(time.Duration) {}

func (f *fakeRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if result == metrics.ResultFailed {
		f.failed = append(f.failed, stage)
	}
}

func (f *fakeRecorder) IncBuildOutcome(result metrics.ResultLabel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, result)
}

func (f *fakeRecorder) SetPagesDiscovered(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discovered = n
}

func (f *fakeRecorder) IncPagesWritten(group string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written[group]++
}

func TestRun_RecordsMetrics(t *testing.T) {
	root := sampleSite(t)
	rec := newFakeRecorder()

	_, err := NewService(siteConfig(root), WithRecorder(rec)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, rec.discovered)
	require.Equal(t, map[string]int{"?": 2, "post": 2}, rec.written)
	require.Equal(t, []metrics.ResultLabel{metrics.ResultSuccess}, rec.outcomes)
	for _, stage := range []string{StageDiscover, StageWrapper, StageParse, StageGroup, StageRender} {
		require.Equal(t, 1, rec.stages[stage], stage)
	}
}

func TestRun_RecordsFailedStage(t *testing.T) {
	root := writeSite(t, map[string]string{"a.md": "# A\n"})
	rec := newFakeRecorder()

	_, err := NewService(siteConfig(root), WithRecorder(rec)).Run(context.Background())
	require.Error(t, err)
	require.Equal(t, []string{StageWrapper}, rec.failed)
	require.Equal(t, []metrics.ResultLabel{metrics.ResultFailed}, rec.outcomes)
}
