// Package pipeline runs a full build followed by indexing as one operation and
// records the run in metrics, build history and notifications.
package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/eventstore"
	"github.com/xamyl/wikii/internal/foundation/errors"
	"github.com/xamyl/wikii/internal/logfields"
	"github.com/xamyl/wikii/internal/metrics"
	"github.com/xamyl/wikii/internal/notify"
	"github.com/xamyl/wikii/internal/search"
	"github.com/xamyl/wikii/internal/site"
)

// Stage names used in history when a run aborts.
const (
	StageBuild = "build"
	StageIndex = "index"
)

// Result is the outcome of one pipeline run.
type Result struct {
	BuildID  string
	Trigger  string
	Report   *site.Report
	Index    *search.Index
	Duration time.Duration
}

// Runner executes pipeline runs. A Runner must not be used for overlapping runs.
type Runner struct {
	cfg        *config.Config
	fs         afero.Fs
	recorder   metrics.Recorder
	store      eventstore.Store
	projection *eventstore.BuildHistoryProjection
	publisher  notify.Publisher
	newID      func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithFs sets the filesystem for both stages.
func WithFs(fs afero.Fs) Option { return func(r *Runner) { r.fs = fs } }

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = metrics.OrNoop(rec) }
}

// WithHistory records every run in store and keeps projection current.
func WithHistory(store eventstore.Store, projection *eventstore.BuildHistoryProjection) Option {
	return func(r *Runner) {
		r.store = store
		r.projection = projection
	}
}

// WithPublisher sets the build notification publisher.
func WithPublisher(p notify.Publisher) Option {
	return func(r *Runner) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithIDGenerator overrides build id generation.
func WithIDGenerator(fn func() string) Option { return func(r *Runner) { r.newID = fn } }

// NewRunner creates a Runner for cfg on the OS filesystem with no history or notifications.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		fs:        afero.NewOsFs(),
		recorder:  metrics.NoopRecorder{},
		publisher: notify.NoopPublisher{},
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run builds the site and then the index. Per-document build failures do not
// prevent indexing the pages that were written; the returned error still
// reports them. A build that could not start (for example a missing source
// directory) skips indexing.
func (r *Runner) Run(ctx context.Context, trigger string) (*Result, error) {
	res := &Result{BuildID: r.newID(), Trigger: trigger}
	start := time.Now()
	log := slog.With(logfields.BuildID(res.BuildID), logfields.Trigger(trigger))

	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewBuildStarted(res.BuildID, eventstore.BuildStartedMeta{
			Trigger:     trigger,
			Source:      r.cfg.Source.Directory,
			Output:      r.cfg.Output.Directory,
			Concurrency: r.cfg.Build.Concurrency,
		})
	})
	log.InfoContext(ctx, "Build started")

	report, buildErr := site.NewBuilder(r.cfg, site.WithFs(r.fs), site.WithRecorder(r.recorder)).Build(ctx)
	res.Report = report
	if buildErr != nil && !errors.HasCategory(buildErr, errors.CategoryBuild) {
		r.abort(ctx, res, StageBuild, buildErr, start)
		return res, buildErr
	}
	r.recordReport(ctx, res.BuildID, report)

	idx, indexErr := search.NewIndexBuilder(r.cfg, search.WithFs(r.fs), search.WithRecorder(r.recorder)).Build(ctx)
	if indexErr != nil {
		r.abort(ctx, res, StageIndex, indexErr, start)
		return res, stderrors.Join(buildErr, indexErr)
	}
	res.Index = idx
	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewIndexWritten(res.BuildID, r.cfg.IndexPath(), len(idx.Docs), time.Since(start))
	})

	res.Duration = time.Since(start)
	r.recorder.ObserveBuildDuration(res.Duration)
	r.recorder.IncBuildOutcome(string(report.Outcome))
	r.publish(ctx, res, "")

	log.InfoContext(ctx, "Build finished",
		slog.String("outcome", string(report.Outcome)),
		slog.String("summary", report.Summary()),
		logfields.Count(len(idx.Docs)))
	return res, buildErr
}

func (r *Runner) abort(ctx context.Context, res *Result, stage string, err error, start time.Time) {
	res.Duration = time.Since(start)
	slog.ErrorContext(ctx, "Build aborted",
		logfields.BuildID(res.BuildID), logfields.Stage(stage), logfields.Error(err))
	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewBuildFailed(res.BuildID, stage, err.Error())
	})
	r.recorder.ObserveBuildDuration(res.Duration)
	r.recorder.IncBuildOutcome(string(site.OutcomeFailed))
	r.publish(ctx, res, err.Error())
}

func (r *Runner) recordReport(ctx context.Context, buildID string, report *site.Report) {
	for _, f := range report.Failures {
		r.record(ctx, func() (eventstore.Event, error) {
			return eventstore.NewDocumentFailed(buildID, f.Document, string(f.Stage), f.Message)
		})
	}
	r.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewBuildCompleted(buildID, eventstore.BuildCompletedMeta{
			Outcome:       string(report.Outcome),
			Discovered:    report.Discovered,
			Rendered:      report.Rendered,
			Failed:        report.Failed(),
			InvalidLinks:  report.InvalidLinks,
			MissingAssets: report.MissingAssets,
			DurationMS:    report.Duration().Milliseconds(),
			SourceHash:    report.SourceHash,
			Fingerprints:  report.Fingerprints,
		})
	})
}

// record appends an event to history. History failures are logged and never fail the run.
func (r *Runner) record(ctx context.Context, build func() (eventstore.Event, error)) {
	if r.store == nil {
		return
	}
	ev, err := build()
	if err == nil {
		err = r.store.Append(context.WithoutCancel(ctx), ev)
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to record build history", logfields.Error(err))
		return
	}
	if r.projection != nil {
		r.projection.Apply(ev)
	}
}

func (r *Runner) publish(ctx context.Context, res *Result, errMsg string) {
	event := notify.BuildEvent{
		BuildID:    res.BuildID,
		Trigger:    res.Trigger,
		Outcome:    string(site.OutcomeFailed),
		DurationMS: res.Duration.Milliseconds(),
		Error:      errMsg,
	}
	if rep := res.Report; rep != nil && errMsg == "" {
		event.Outcome = string(rep.Outcome)
		event.Discovered = rep.Discovered
		event.Rendered = rep.Rendered
		event.Failed = rep.Failed()
		event.InvalidLinks = rep.InvalidLinks
		event.SourceHash = rep.SourceHash
	}
	if res.Index != nil {
		event.IndexedDocuments = len(res.Index.Docs)
	}
	if err := r.publisher.PublishBuild(context.WithoutCancel(ctx), event); err != nil {
		slog.WarnContext(ctx, "Failed to publish build notification",
			logfields.BuildID(res.BuildID), logfields.Error(err))
	}
}
