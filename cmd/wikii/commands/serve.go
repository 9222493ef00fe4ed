package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/daemon"
	"github.com/xamyl/wikii/internal/metrics"
	"github.com/xamyl/wikii/internal/server/httpserver"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port  int  `short:"p" help:"Override server.port"`
	Build bool `help:"Run a full build before serving"`
	Watch bool `short:"w" help:"Rebuild when source documents change (overrides daemon.watch)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Port > 0 {
		cfg.Server.Port = s.Port
	}
	if s.Watch {
		cfg.Daemon.Watch = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunServe(ctx, cfg, s.Build, g.out())
}

// RunServe starts the query service and the rebuild daemon and blocks until
// ctx is cancelled, then shuts both down within server.shutdown_timeout.
func RunServe(ctx context.Context, cfg *config.Config, initialBuild bool, out io.Writer) error {
	opts := httpserver.Options{}
	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Server.Metrics {
		reg := metrics.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		opts.Recorder = rec
		opts.PrometheusHandler = metrics.HTTPHandler(reg)
	}

	env, err := newPipelineEnv(ctx, cfg, rec)
	if err != nil {
		return err
	}
	defer env.close()

	srv := httpserver.New(cfg, opts)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	d := daemon.New(cfg, daemon.RunnerFunc(func(ctx context.Context, trigger daemon.Trigger) error {
		_, err := env.runner.Run(ctx, string(trigger))
		return err
	}))
	if err := d.Start(ctx, initialBuild); err != nil {
		stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownDuration())
		defer stopCancel()
		return stderrors.Join(err, srv.Stop(stopCtx))
	}

	fmt.Fprintf(out, "Server running at http://%s\n", srv.Addr())
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping server...")

	stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownDuration())
	defer stopCancel()
	if err := stderrors.Join(srv.Stop(stopCtx), d.Stop(stopCtx)); err != nil {
		return err
	}
	slog.Info("Server stopped")
	return nil
}
