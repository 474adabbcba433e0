package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/mdsite/internal/discovery"
	"git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/group"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/observability"
	"git.home.luguber.info/inful/mdsite/internal/output"
	"git.home.luguber.info/inful/mdsite/internal/page"
	"git.home.luguber.info/inful/mdsite/internal/templates"
)

// Run executes the complete build pipeline.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	result := &Result{
		BuildID:   s.newID(),
		StartTime: startTime,
	}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	if s.cfg == nil {
		return s.fail(ctx, result, "", errors.ConfigError("config required").Build())
	}
	if err := s.cfg.Validate(); err != nil {
		return s.fail(ctx, result, "", err)
	}

	cfg := s.cfg
	root := cfg.Root
	observability.InfoContext(ctx, "Starting site build",
		slog.String("root", root),
		logfields.Output(s.resolve(cfg.OutDir)),
		slog.Bool("dry_run", cfg.DryRun))

	// Stage 1: discover sources
	stageStart := time.Now()
	ctx = observability.WithStage(ctx, StageDiscover)
	sources, err := discovery.New(root, cfg.Patterns).Discover(ctx)
	if err != nil {
		return s.fail(ctx, result, StageDiscover, err)
	}
	result.Sources = sources
	s.recorder.SetPagesDiscovered(len(sources))
	s.stageDone(ctx, StageDiscover, stageStart, logfields.Count(len(sources)))

	// Stage 2: load the wrapper once for every page
	stageStart = time.Now()
	ctx = observability.WithStage(ctx, StageWrapper)
	wrapper, err := s.loadWrapper()
	if err != nil {
		return s.fail(ctx, result, StageWrapper, err)
	}
	s.stageDone(ctx, StageWrapper, stageStart, logfields.Path(cfg.Wrapper))

	// Stage 3: parse every page before rendering any
	stageStart = time.Now()
	ctx = observability.WithStage(ctx, StageParse)
	pages := make([]*page.Page, 0, len(sources))
	for _, src := range sources {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.fail(ctx, result, StageParse, ctxErr)
		}
		p, err := page.LoadFile(root, src)
		if err != nil {
			return s.fail(ctx, result, StageParse, err)
		}
		observability.DebugContext(ctx, "Parsed page", logfields.Path(src), logfields.URL(p.URL()))
		pages = append(pages, p)
	}
	s.stageDone(ctx, StageParse, stageStart, logfields.Count(len(pages)))

	// Stage 4: group pages by type
	stageStart = time.Now()
	ctx = observability.WithStage(ctx, StageGroup)
	idx := group.Build(pages)
	result.Groups = idx.Keys()
	if !cfg.AllowGroupOverride {
		if err := templates.CheckGroupKeys(idx.Keys()); err != nil {
			return s.fail(ctx, result, StageGroup, errors.TemplateError(err, "group collides with a reserved field").Build())
		}
	}
	s.stageDone(ctx, StageGroup, stageStart, slog.Any("groups", result.Groups))

	// Stage 5: render and write each page
	stageStart = time.Now()
	ctx = observability.WithStage(ctx, StageRender)
	allPages := group.FieldsOf(pages)
	groups := idx.Context()
	converter := markdown.New(markdown.Options{
		HTML:        cfg.Markdown.HTML,
		Linkify:     cfg.Markdown.Linkify,
		Typographer: cfg.Markdown.Typographer,
	})
	writer := output.NewWriter(s.resolve(cfg.OutDir), cfg.DryRun, s.stdout)

	for _, p := range pages {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.fail(ctx, result, StageRender, ctxErr)
		}

		html, err := renderPage(p, wrapper, converter, allPages, groups)
		if err != nil {
			return s.fail(ctx, result, StageRender, err)
		}

		dest, err := writer.Write(p.URL(), html)
		if err != nil {
			return s.fail(ctx, result, StageRender, err)
		}
		result.Outputs = append(result.Outputs, dest)
		key := group.Key(p)
		s.recorder.IncPagesWritten(key)
		observability.DebugContext(ctx, "Rendered page", logfields.Path(p.Source()), logfields.Group(key), logfields.Output(dest))
	}
	s.stageDone(ctx, StageRender, stageStart, logfields.Count(len(result.Outputs)))

	result.Status = StatusSuccess
	s.finish(result)
	s.recorder.IncBuildOutcome(metrics.ResultSuccess)
	observability.InfoContext(ctx, "Site build completed",
		logfields.Count(len(result.Outputs)),
		logfields.DurationMS(float64(result.Duration.Microseconds())/1000))
	return result, nil
}

// renderPage runs the content pass, converts the markdown and embeds the
// HTML in the wrapper.
func renderPage(p *page.Page, wrapper *templates.Template, converter *markdown.Converter, allPages []any, groups map[string]any) ([]byte, error) {
	fields := p.Fields()

	contentMD, err := templates.RenderString(p.Source(), p.Content(), templates.ContentData(fields, allPages, groups))
	if err != nil {
		return nil, errors.TemplateError(err, "failed to render page content").
			WithContext("path", p.Source()).
			Build()
	}

	html, err := converter.Convert([]byte(contentMD))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryMarkdown, "failed to convert markdown").
			Fatal().
			WithContext("path", p.Source()).
			Build()
	}

	rendered, err := wrapper.Render(templates.WrapperData(fields, string(html)))
	if err != nil {
		return nil, errors.TemplateError(err, "failed to render wrapper").
			WithContext("path", p.Source()).
			Build()
	}
	return []byte(rendered), nil
}

func (s *Service) loadWrapper() (*templates.Template, error) {
	path := s.resolve(s.cfg.Wrapper)
	// #nosec G304 -- the wrapper path comes from the build configuration.
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemError(err, "failed to read wrapper template").
			WithContext("path", path).
			Build()
	}
	tpl, err := templates.Compile(s.cfg.Wrapper, string(text))
	if err != nil {
		return nil, errors.TemplateError(err, "failed to parse wrapper template").
			WithContext("path", path).
			Build()
	}
	return tpl, nil
}

// resolve places relative paths under the site root.
func (s *Service) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.cfg.Root, p)
}

func (s *Service) stageDone(ctx context.Context, stage string, start time.Time, attrs ...slog.Attr) {
	d := time.Since(start)
	s.recorder.ObserveStageDuration(stage, d)
	s.recorder.IncStageResult(stage, metrics.ResultSuccess)
	observability.DebugContext(ctx, "Stage completed", append(attrs, logfields.DurationMS(float64(d.Microseconds())/1000))...)
}

func (s *Service) fail(ctx context.Context, result *Result, stage string, err error) (*Result, error) {
	result.Status = StatusFailed
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		result.Status = StatusCancelled
	}
	s.finish(result)
	if stage != "" {
		s.recorder.IncStageResult(stage, metrics.ResultFailed)
	}
	s.recorder.IncBuildOutcome(metrics.ResultFailed)
	observability.ErrorContext(ctx, "Site build failed", logfields.Error(err))
	return result, err
}

func (s *Service) finish(result *Result) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	s.recorder.ObserveBuildDuration(result.Duration)
}
