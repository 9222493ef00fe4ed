// Package daemon keeps the site fresh while the query service runs: a file
// watcher and a cron scheduler request rebuilds, and a single build loop runs
// them one at a time.
package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/xamyl/wikii/internal/logfields"
)

// Trigger names what requested a rebuild.
type Trigger string

const (
	TriggerStartup  Trigger = "startup"
	TriggerWatch    Trigger = "watch"
	TriggerSchedule Trigger = "schedule"
)

// Runner performs one full rebuild.
type Runner interface {
	Run(ctx context.Context, trigger Trigger) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, trigger Trigger) error

func (f RunnerFunc) Run(ctx context.Context, trigger Trigger) error { return f(ctx, trigger) }

// BuildLoop serializes rebuilds. At most one build runs and at most one more
// waits; requests arriving while one is already waiting are merged into it.
type BuildLoop struct {
	runner  Runner
	pending chan Trigger
	running atomic.Bool
	runs    atomic.Int64
}

// NewBuildLoop creates a loop that executes runner.
func NewBuildLoop(runner Runner) *BuildLoop {
	return &BuildLoop{runner: runner, pending: make(chan Trigger, 1)}
}

// Request asks for a rebuild. It reports false when the request was merged
// into one that is already waiting.
func (l *BuildLoop) Request(trigger Trigger) bool {
	select {
	case l.pending <- trigger:
		slog.Debug("Rebuild requested", logfields.Trigger(string(trigger)))
		return true
	default:
		slog.Debug("Rebuild already pending", logfields.Trigger(string(trigger)))
		return false
	}
}

// Running reports whether a build is in progress.
func (l *BuildLoop) Running() bool { return l.running.Load() }

// Runs returns the number of builds executed so far.
func (l *BuildLoop) Runs() int64 { return l.runs.Load() }

// Run executes requested builds until ctx is cancelled. A build that has
// started is not interrupted by cancellation.
func (l *BuildLoop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-l.pending:
			l.running.Store(true)
			if err := l.runner.Run(context.WithoutCancel(ctx), trigger); err != nil {
				slog.Error("Rebuild failed", logfields.Trigger(string(trigger)), logfields.Error(err))
			}
			l.running.Store(false)
			l.runs.Add(1)
		}
	}
}
