package errors

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: http.StatusOK},
		{name: "validation", err: ValidationError("bad").Build(), expected: http.StatusBadRequest},
		{name: "not found", err: NotFoundError("missing").Build(), expected: http.StatusNotFound},
		{name: "search unavailable", err: SearchError("index missing").Build(), expected: http.StatusServiceUnavailable},
		{name: "index build", err: IndexError("broken").Build(), expected: http.StatusUnprocessableEntity},
		{name: "internal", err: InternalError("boom").Build(), expected: http.StatusInternalServerError},
		{name: "unclassified", err: stderrors.New("unknown"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.StatusCodeFor(tt.err))
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search?q=x", nil)

	err := SearchError("search index not available").
		WithContext("path", "dist/search_index.json").
		Retryable().
		Build()
	adapter.WriteErrorResponse(rec, req, err)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "search index not available", payload.Error)
	assert.Equal(t, "search", payload.Code)
	assert.True(t, payload.Retryable)
	assert.Equal(t, "dist/search_index.json", payload.Details["path"])
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	assert.Equal(t, 0, adapter.ExitCodeFor(nil))
	assert.Equal(t, 1, adapter.ExitCodeFor(stderrors.New("plain")))
	assert.Equal(t, 7, adapter.ExitCodeFor(ConfigError("bad config").Build()))
	assert.Equal(t, 11, adapter.ExitCodeFor(BuildError("pages failed").Build()))
	assert.Equal(t, 11, adapter.ExitCodeFor(IndexError("index failed").Build()))
	assert.Equal(t, 10, adapter.ExitCodeFor(InternalError("boom").Build()))
}

func TestCLIErrorAdapter_FormatAndHandle(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	assert.Equal(t, "Error: pages failed", quiet.FormatError(BuildError("pages failed").Build()))
	assert.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(InternalError("boom").Build()))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Equal(t, "[build:fatal] pages failed", verbose.FormatError(BuildError("pages failed").Build()))

	var code int
	quiet.exit = func(c int) { code = c }
	quiet.HandleError(BuildError("pages failed").Build())
	assert.Equal(t, 11, code)
}
