// Package httpserver wires the query service: search, probes, metrics and static pages.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/afero"

	"github.com/xamyl/wikii/internal/config"
	derrors "github.com/xamyl/wikii/internal/foundation/errors"
	"github.com/xamyl/wikii/internal/logfields"
	"github.com/xamyl/wikii/internal/metrics"
	handlers "github.com/xamyl/wikii/internal/server/handlers"
	smw "github.com/xamyl/wikii/internal/server/middleware"
)

const readHeaderTimeout = 10 * time.Second

// Server manages the single HTTP listener of the query service.
type Server struct {
	srv          *http.Server
	ln           net.Listener
	cfg          *config.Config
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter

	searchHandlers     *handlers.SearchHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	// middleware chain
	mchain func(http.Handler) http.Handler
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, opts Options) *Server {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	opts.Recorder = metrics.OrNoop(opts.Recorder)
	if opts.Addr == "" {
		opts.Addr = cfg.Addr()
	}

	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
	}
	s.searchHandlers = handlers.NewSearchHandlers(opts.Fs, cfg.IndexPath(), opts.Recorder)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(opts.Fs, cfg.IndexPath())
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)
	return s
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.searchHandlers.HandleSearch)
	mux.HandleFunc("/healthz", s.monitoringHandlers.HandleHealthCheck)
	mux.HandleFunc("/readyz", s.monitoringHandlers.HandleReadiness)
	if s.cfg.Server.Metrics && s.opts.PrometheusHandler != nil {
		mux.Handle("/metrics", s.opts.PrometheusHandler)
	}
	static := afero.NewHttpFs(s.opts.Fs).Dir(s.cfg.Output.Directory)
	mux.Handle("/", http.FileServer(static))
	return s.mchain(mux)
}

// Start binds the listen address and serves in the background. Bind failures
// are returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "failed to bind HTTP listener").
			WithContext("addr", s.opts.Addr).
			Fatal().
			Build()
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", logfields.Error(err))
		}
	}()
	slog.Info("HTTP server started",
		slog.String("addr", ln.Addr().String()),
		logfields.Path(s.cfg.Output.Directory))
	return nil
}

// Addr returns the bound listener address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.opts.Addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}
