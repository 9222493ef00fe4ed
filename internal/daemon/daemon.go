package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/logfields"
)

// Daemon owns the build loop and the optional watcher and scheduler.
type Daemon struct {
	cfg       *config.Config
	loop      *BuildLoop
	watcher   *SourceWatcher
	scheduler *Scheduler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon that rebuilds through runner.
func New(cfg *config.Config, runner Runner) *Daemon {
	return &Daemon{cfg: cfg, loop: NewBuildLoop(runner)}
}

// Loop exposes the build loop.
func (d *Daemon) Loop() *BuildLoop { return d.loop }

// Start launches the build loop, then the watcher and scheduler when enabled.
// When initialBuild is true a startup rebuild is requested immediately.
func (d *Daemon) Start(ctx context.Context, initialBuild bool) error {
	ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop.Run(ctx)
	}()

	if initialBuild {
		d.loop.Request(TriggerStartup)
	}

	if d.cfg.Daemon.Watch {
		w, err := NewSourceWatcher(d.cfg.Source.Directory, d.cfg.DebounceDuration(), func() {
			d.loop.Request(TriggerWatch)
		})
		if err != nil {
			d.shutdown()
			return err
		}
		if err := w.Start(ctx); err != nil {
			_ = w.Stop()
			d.shutdown()
			return err
		}
		d.watcher = w
	}

	if d.cfg.Daemon.Schedule != "" {
		s, err := NewScheduler(d.cfg.Daemon.Schedule, func() { d.loop.Request(TriggerSchedule) })
		if err != nil {
			_ = d.Stop(ctx)
			return err
		}
		s.Start(ctx)
		d.scheduler = s
		slog.Info("Scheduled rebuilds",
			slog.String("schedule", d.cfg.Daemon.Schedule),
			slog.String("job_id", s.JobID()))
	}

	slog.Info("Daemon started",
		slog.Bool("watch", d.cfg.Daemon.Watch),
		slog.String("schedule", d.cfg.Daemon.Schedule))
	return nil
}

// Stop stops the watcher and scheduler and waits for an in-flight build to finish.
func (d *Daemon) Stop(ctx context.Context) error {
	var errs []error
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
		d.watcher = nil
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
		d.scheduler = nil
	}
	if d.loop.Running() {
		slog.Info("Waiting for in-flight rebuild")
	}
	d.shutdown()
	slog.Info("Daemon stopped", logfields.Count(int(d.loop.Runs())))
	return errors.Join(errs...)
}

func (d *Daemon) shutdown() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}
