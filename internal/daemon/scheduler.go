package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron scheduler that requests periodic rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
	jobID     string
}

// NewScheduler creates a scheduler that calls request on every tick of the
// five-field cron expression.
func NewScheduler(expr string, request func()) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	job, err := s.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(request),
		gocron.WithName("scheduled-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create scheduled rebuild job %q: %w", expr, err)
	}

	return &Scheduler{scheduler: s, jobID: job.ID().String()}, nil
}

// JobID returns the identifier of the scheduled rebuild job.
func (s *Scheduler) JobID() string { return s.jobID }

// Start begins the scheduler.
func (s *Scheduler) Start(_ context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(_ context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
