package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/eventstore"
	"github.com/xamyl/wikii/internal/logfields"
	"github.com/xamyl/wikii/internal/metrics"
	"github.com/xamyl/wikii/internal/notify"
	"github.com/xamyl/wikii/internal/pipeline"
	"github.com/xamyl/wikii/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	NoIndex bool `name:"no-index" help:"Render pages only and leave the search index untouched"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx := context.Background()
	out := g.out()

	fmt.Fprintf(out, "Building wiki from %s into %s\n", cfg.Source.Directory, cfg.Output.Directory)

	if b.NoIndex {
		report, err := site.NewBuilder(cfg).Build(ctx)
		if report != nil {
			fmt.Fprintln(out, report.Summary())
		}
		return err
	}

	env, err := newPipelineEnv(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer env.close()

	res, err := env.runner.Run(ctx, "cli")
	if res != nil && res.Report != nil {
		fmt.Fprintln(out, res.Report.Summary())
	}
	if res != nil && res.Index != nil {
		fmt.Fprintf(out, "Search index written to %s (%d documents)\n", cfg.IndexPath(), len(res.Index.Docs))
	}
	return err
}

// pipelineEnv bundles a pipeline runner with the history store and publisher
// it owns.
type pipelineEnv struct {
	runner     *pipeline.Runner
	store      *eventstore.SQLiteStore
	projection *eventstore.BuildHistoryProjection
	publisher  notify.Publisher
}

func newPipelineEnv(ctx context.Context, cfg *config.Config, rec metrics.Recorder) (*pipelineEnv, error) {
	env := &pipelineEnv{}

	store, err := openHistory(cfg)
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{pipeline.WithRecorder(rec)}
	if store != nil {
		env.store = store
		env.projection = eventstore.NewBuildHistoryProjection(store, 0)
		if err := env.projection.Rebuild(ctx); err != nil {
			slog.Warn("Failed to load build history", logfields.Error(err))
		}
		opts = append(opts, pipeline.WithHistory(store, env.projection))
	}

	publisher, err := notify.New(cfg.Notify)
	if err != nil {
		slog.Warn("Build notifications disabled", logfields.Error(err))
		publisher = notify.NoopPublisher{}
	}
	env.publisher = publisher
	opts = append(opts, pipeline.WithPublisher(publisher))

	env.runner = pipeline.NewRunner(cfg, opts...)
	return env, nil
}

func (e *pipelineEnv) close() {
	if err := e.publisher.Close(); err != nil {
		slog.Warn("Failed to close notification publisher", logfields.Error(err))
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			slog.Warn("Failed to close build history", logfields.Error(err))
		}
	}
}
