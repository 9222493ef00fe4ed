package httpserver

import (
	"net/http"

	"github.com/spf13/afero"

	"github.com/xamyl/wikii/internal/metrics"
)

// Options configures additional server wiring that is runtime-specific.
type Options struct {
	// Fs backs the static file server, the search handler and readiness. Defaults to the OS filesystem.
	Fs afero.Fs

	// Recorder receives search metrics. Defaults to a no-op recorder.
	Recorder metrics.Recorder

	// PrometheusHandler is mounted on /metrics when server.metrics is enabled.
	PrometheusHandler http.Handler

	// Addr overrides the listen address derived from server.port.
	Addr string
}
