// Package site renders every source document into a page of the output directory.
package site

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/docs"
	derrors "github.com/xamyl/wikii/internal/docs/errors"
	"github.com/xamyl/wikii/internal/foundation/errors"
	"github.com/xamyl/wikii/internal/logfields"
	"github.com/xamyl/wikii/internal/markdown"
	"github.com/xamyl/wikii/internal/metrics"
	"github.com/xamyl/wikii/internal/page"
)

// Builder runs full site builds. Every Build regenerates all pages.
type Builder struct {
	cfg      *config.Config
	fs       afero.Fs
	recorder metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithFs sets the filesystem used for reading sources and writing pages.
func WithFs(fs afero.Fs) Option {
	return func(b *Builder) { b.fs = fs }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = metrics.OrNoop(r) }
}

// NewBuilder creates a Builder for cfg on the OS filesystem.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{cfg: cfg, fs: afero.NewOsFs(), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders every eligible document concurrently and writes the pages and
// the shared stylesheet. Per-document failures do not stop sibling documents;
// they are recorded in the report and surface as one aggregate build error.
// The context is used for logging only; a started build runs to completion.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := newReport()
	report.Concurrency = b.cfg.Build.Concurrency

	sources, err := timed(b, StageDiscover, func() ([]docs.SourceDocument, error) {
		return docs.Discover(b.fs, b.cfg.Source)
	})
	if err != nil {
		report.finish()
		return report, classifyDiscovery(err, b.cfg.Source.Directory)
	}
	report.Discovered = len(sources)
	report.Collisions = detectCollisions(sources)
	for _, c := range report.Collisions {
		slog.WarnContext(ctx, "Multiple documents map to the same page; the last write wins", logfields.Page(c))
	}

	known, err := timed(b, StageSnapshot, func() (docs.SourceSet, error) {
		return docs.Snapshot(b.fs, b.cfg.Source.Directory)
	})
	if err != nil {
		report.finish()
		return report, errors.WrapError(err, errors.CategoryFileSystem, "failed to snapshot source directory").
			WithContext("path", b.cfg.Source.Directory).
			Build()
	}

	pagesDir := b.cfg.PagesPath()
	if err := b.fs.MkdirAll(pagesDir, 0o755); err != nil {
		report.finish()
		return report, errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", pagesDir).
			Build()
	}

	if err := b.writeStylesheet(); err != nil {
		slog.ErrorContext(ctx, "Failed to write stylesheet", logfields.Path(b.cfg.StylesheetPath()), logfields.Error(err))
		report.recordFailure(b.cfg.Output.Stylesheet, StageStylesheet, err)
	}

	renderer := markdown.NewRenderer(known, markdown.Options{AllowRawHTML: b.cfg.AllowRawHTML()})
	b.recorder.SetBuildConcurrency(b.cfg.Build.Concurrency)

	p := pool.New().WithMaxGoroutines(b.cfg.Build.Concurrency).WithErrors()
	for _, src := range sources {
		p.Go(func() error {
			return b.buildDocument(ctx, renderer, known, src, pagesDir, report)
		})
	}
	poolErr := p.Wait()

	report.SourceHash = docs.SetHash(report.Fingerprints)
	report.finish()

	if len(report.Failures) > 0 {
		return report, errors.BuildError(fmt.Sprintf("%d of %d documents failed", report.Failed(), report.Discovered)).
			WithCause(poolErr).
			WithContext("failed", report.Failed()).
			WithContext("discovered", report.Discovered).
			Build()
	}
	return report, nil
}

func (b *Builder) buildDocument(ctx context.Context, renderer *markdown.Renderer, known docs.SourceSet, src docs.SourceDocument, pagesDir string, report *Report) error {
	fail := func(stage Stage, err error) error {
		slog.ErrorContext(ctx, "Document failed",
			logfields.Document(src.Name), logfields.Stage(string(stage)), logfields.Error(err))
		b.recorder.IncStageResult(string(stage), metrics.ResultFatal)
		classified := classifyStage(stage, err).
			WithCause(err).
			WithContext("document", src.Name).
			WithContext("stage", string(stage)).
			Build()
		report.recordFailure(src.Name, stage, classified)
		return classified
	}

	loaded, err := src.Read(b.fs)
	if err != nil {
		return fail(StageRead, err)
	}

	frag, err := timed(b, StageRender, func() (markdown.Fragment, error) {
		return renderer.Render(loaded.Content)
	})
	if err != nil {
		return fail(StageRender, err)
	}

	pg, err := page.Assemble(frag.HTML, loaded.Slug, page.Options{
		PagesDir:   b.cfg.Output.PagesDir,
		Stylesheet: b.cfg.Output.Stylesheet,
	})
	if err != nil {
		return fail(StageAssemble, err)
	}

	target := filepath.Join(pagesDir, pg.Filename)
	if err := afero.WriteFile(b.fs, target, pg.HTML, 0o644); err != nil {
		return fail(StageWrite, err)
	}

	missing := missingAssets(known, loaded.Content)
	for _, m := range missing {
		slog.WarnContext(ctx, "Image target not found in source directory",
			logfields.Document(src.Name), logfields.Path(m))
	}
	if n := frag.InvalidLinks(); n > 0 {
		slog.DebugContext(ctx, "Document has invalid links", logfields.Document(src.Name), logfields.Count(n))
	}

	report.recordPage(src.Name, pg.Filename, docs.Fingerprint(loaded), frag.InvalidLinks(), len(missing))
	b.recorder.IncStageResult(string(StageWrite), metrics.ResultSuccess)
	slog.DebugContext(ctx, "Page written", logfields.Document(src.Name), logfields.Page(pg.Filename))
	return nil
}

func (b *Builder) writeStylesheet() error {
	css, err := page.Stylesheet(b.cfg.Markdown.HighlightStyle)
	if err != nil {
		return err
	}
	return afero.WriteFile(b.fs, b.cfg.StylesheetPath(), css, 0o644)
}

// timed runs fn and records its duration against stage.
func timed[T any](b *Builder, stage Stage, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	b.recorder.ObserveStageDuration(string(stage), time.Since(start))
	return v, err
}

// missingAssets lists local image targets that do not resolve in known.
func missingAssets(known docs.SourceSet, content []byte) []string {
	var missing []string
	for _, img := range markdown.Images(content) {
		if strings.Contains(img, "://") || strings.HasPrefix(img, "data:") {
			continue
		}
		if !markdown.Resolve(known, img) {
			missing = append(missing, img)
		}
	}
	return missing
}

// detectCollisions reports page filenames produced by more than one document.
func detectCollisions(sources []docs.SourceDocument) []string {
	seen := make(map[string]struct{}, len(sources))
	var collisions []string
	for _, src := range sources {
		name := page.Filename(src.Name)
		if _, ok := seen[name]; ok {
			collisions = append(collisions, name)
			continue
		}
		seen[name] = struct{}{}
	}
	return collisions
}

// classifyStage picks the error category for a per-document stage failure.
// Filesystem failures are retryable; render and assemble failures are not.
func classifyStage(stage Stage, err error) *errors.ErrorBuilder {
	switch stage {
	case StageRead, StageWrite:
		return errors.FileSystemError(fmt.Sprintf("failed to %s document", stage))
	default:
		return errors.RenderError(fmt.Sprintf("failed to %s document", stage))
	}
}

func classifyDiscovery(err error, dir string) error {
	if stderrors.Is(err, derrors.ErrSourceDirNotFound) || stderrors.Is(err, derrors.ErrSourceNotDirectory) {
		return errors.WrapError(err, errors.CategoryNotFound, "source directory not found").
			WithContext("path", dir).
			Build()
	}
	return errors.WrapError(err, errors.CategoryFileSystem, "failed to list source directory").
		WithContext("path", dir).
		Build()
}
