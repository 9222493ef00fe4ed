package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/afero"

	"github.com/xamyl/wikii/internal/foundation/errors"
	"github.com/xamyl/wikii/internal/logfields"
	"github.com/xamyl/wikii/internal/metrics"
	"github.com/xamyl/wikii/internal/search"
)

// NoQueryMessage is the plain-text body returned when /search has no q parameter.
const NoQueryMessage = "No search query provided."

// SearchHandlers answers substring queries against the index artifact.
type SearchHandlers struct {
	fs           afero.Fs
	indexPath    string
	recorder     metrics.Recorder
	errorAdapter *errors.HTTPErrorAdapter
}

// NewSearchHandlers creates search handlers reading the index at indexPath.
func NewSearchHandlers(fs afero.Fs, indexPath string, recorder metrics.Recorder) *SearchHandlers {
	return &SearchHandlers{
		fs:           fs,
		indexPath:    indexPath,
		recorder:     metrics.OrNoop(recorder),
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleSearch handles GET /search?q=. The index is loaded on every request so
// a rebuilt artifact is served without a restart.
func (h *SearchHandlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !requireGet(h.errorAdapter, w, r) {
		return
	}
	start := time.Now()
	defer func() { h.recorder.ObserveSearchDuration(time.Since(start)) }()

	q := r.URL.Query().Get("q")
	if q == "" {
		h.recorder.IncSearchQuery(metrics.QueryEmpty)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(NoQueryMessage))
		return
	}

	idx, err := search.Load(h.fs, h.indexPath)
	if err != nil {
		h.recorder.IncSearchQuery(metrics.QueryError)
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	results := search.Query(idx, q)
	if len(results) > 0 {
		h.recorder.IncSearchQuery(metrics.QueryHit)
	} else {
		h.recorder.IncSearchQuery(metrics.QueryMiss)
	}
	slog.DebugContext(r.Context(), "Search served", logfields.Query(q), logfields.Results(len(results)))

	if err := writeJSONPretty(w, r, http.StatusOK, results); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write search response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
