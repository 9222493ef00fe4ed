package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/afero"

	"github.com/xamyl/wikii/internal/foundation/errors"
	"github.com/xamyl/wikii/internal/search"
	"github.com/xamyl/wikii/internal/server/responses"
	"github.com/xamyl/wikii/internal/version"
)

// MonitoringHandlers contains liveness and readiness handlers.
type MonitoringHandlers struct {
	fs           afero.Fs
	indexPath    string
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates monitoring handlers; readiness checks the index at indexPath.
func NewMonitoringHandlers(fs afero.Fs, indexPath string) *MonitoringHandlers {
	return &MonitoringHandlers{
		fs:           fs,
		indexPath:    indexPath,
		startTime:    time.Now(),
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck reports that the process is serving.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if !requireGet(h.errorAdapter, w, r) {
		return
	}

	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write health response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

// HandleReadiness reports ready once a decodable index artifact exists.
func (h *MonitoringHandlers) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	if !requireGet(h.errorAdapter, w, r) {
		return
	}

	idx, err := search.Load(h.fs, h.indexPath)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	ready := &responses.ReadyResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		IndexPath: h.indexPath,
		Documents: len(idx.Docs),
	}
	if fi, statErr := h.fs.Stat(h.indexPath); statErr == nil {
		ready.IndexAge = time.Since(fi.ModTime()).Seconds()
	}
	if err := writeJSONPretty(w, r, http.StatusOK, ready); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write readiness response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
