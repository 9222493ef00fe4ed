package search

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/foundation/errors"
	"github.com/xamyl/wikii/internal/logfields"
	"github.com/xamyl/wikii/internal/metrics"
)

// PageExtension is the suffix of files the index builder picks up.
const PageExtension = ".html"

// IndexBuilder builds the search index from the pages of a finished build.
type IndexBuilder struct {
	cfg      *config.Config
	fs       afero.Fs
	recorder metrics.Recorder
}

// Option configures an IndexBuilder.
type Option func(*IndexBuilder)

// WithFs sets the filesystem pages are read from and the index is written to.
func WithFs(fs afero.Fs) Option {
	return func(b *IndexBuilder) { b.fs = fs }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *IndexBuilder) { b.recorder = metrics.OrNoop(r) }
}

// NewIndexBuilder creates an IndexBuilder for cfg on the OS filesystem.
func NewIndexBuilder(cfg *config.Config, opts ...Option) *IndexBuilder {
	b := &IndexBuilder{cfg: cfg, fs: afero.NewOsFs(), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build reads every page in the pages directory, indexes it and writes the
// artifact. Entries are numbered from "1" in filename order. Any unreadable
// page aborts the run so the index never references a page it did not see.
func (b *IndexBuilder) Build(ctx context.Context) (*Index, error) {
	start := time.Now()
	defer func() { b.recorder.ObserveStageDuration("index", time.Since(start)) }()

	dir := b.cfg.PagesPath()
	names, err := b.pageNames(dir)
	if err != nil {
		b.recorder.IncStageResult("index", metrics.ResultFatal)
		return nil, err
	}

	idx := NewIndex()
	tok := NewTokenizer()
	for i, name := range names {
		path := filepath.Join(dir, name)
		content, err := afero.ReadFile(b.fs, path)
		if err != nil {
			b.recorder.IncStageResult("index", metrics.ResultFatal)
			return nil, errors.WrapError(err, errors.CategoryIndex, "failed to read page").
				WithContext("path", path).
				Build()
		}
		idx.Add(tok, Entry{
			ID:      strconv.Itoa(i + 1),
			Title:   strings.TrimSuffix(name, PageExtension),
			Content: string(content),
		})
	}

	target := b.cfg.IndexPath()
	if err := idx.Write(b.fs, target); err != nil {
		slog.ErrorContext(ctx, "Failed to write search index", logfields.Path(target), logfields.Error(err))
		b.recorder.IncStageResult("index", metrics.ResultFatal)
		return nil, errors.WrapError(err, errors.CategoryIndex, "failed to write search index").
			WithContext("path", target).
			Build()
	}

	b.recorder.SetIndexedDocuments(len(idx.Docs))
	b.recorder.IncStageResult("index", metrics.ResultSuccess)
	slog.InfoContext(ctx, "Search index written",
		logfields.Path(target),
		logfields.Count(len(idx.Docs)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return idx, nil
}

// pageNames lists the page files directly inside dir, sorted.
func (b *IndexBuilder) pageNames(dir string) ([]string, error) {
	infos, err := afero.ReadDir(b.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapError(err, errors.CategoryNotFound, "pages directory not found; run a build first").
				WithContext("path", dir).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryIndex, "failed to list pages directory").
			WithContext("path", dir).
			Build()
	}
	pages := lo.FilterMap(infos, func(fi os.FileInfo, _ int) (string, bool) {
		return fi.Name(), !fi.IsDir() && strings.HasSuffix(fi.Name(), PageExtension)
	})
	sort.Strings(pages)
	return pages, nil
}

func filterEntries(entries []Entry, keep func(Entry) bool) []Entry {
	out := lo.Filter(entries, func(e Entry, _ int) bool { return keep(e) })
	if out == nil {
		return []Entry{}
	}
	return out
}
