package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/metrics"
	"github.com/xamyl/wikii/internal/search"
	"github.com/xamyl/wikii/internal/server/handlers"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Output.Directory = "dist"
	return cfg
}

func writeIndex(t *testing.T, fs afero.Fs) {
	t.Helper()
	idx := search.NewIndex()
	tok := search.NewTokenizer()
	idx.Add(tok, search.Entry{ID: "1", Title: "Intro", Content: "hello world"})
	idx.Add(tok, search.Entry{ID: "2", Title: "Setup", Content: "install steps"})
	require.NoError(t, idx.Write(fs, filepath.Join("dist", "search_index.json")))
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeIndex(t, fs)
	h := New(testConfig(), Options{Fs: fs}).Handler()

	rec := serve(t, h, "/search?q=hello")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var got []search.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []search.Entry{{ID: "1", Title: "Intro", Content: "hello world"}}, got)

	rec = serve(t, h, "/search?q=xyz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSearchWithoutQuery(t *testing.T) {
	fs := afero.NewMemMapFs()
	h := New(testConfig(), Options{Fs: fs}).Handler()

	for _, target := range []string{"/search", "/search?q="} {
		rec := serve(t, h, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, handlers.NoQueryMessage, rec.Body.String(), target)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain", target)
	}
}

func TestSearchReadsIndexPerRequest(t *testing.T) {
	fs := afero.NewMemMapFs()
	h := New(testConfig(), Options{Fs: fs}).Handler()

	rec := serve(t, h, "/search?q=hello")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	writeIndex(t, fs)
	rec = serve(t, h, "/search?q=hello")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchCorruptIndex(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join("dist", "search_index.json"), []byte("{"), 0o644))
	h := New(testConfig(), Options{Fs: fs}).Handler()

	rec := serve(t, h, "/search?q=hello")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload, "error")
}

func TestSearchRejectsPost(t *testing.T) {
	h := New(testConfig(), Options{Fs: afero.NewMemMapFs()}).Handler()
	req := httptest.NewRequest(http.MethodPost, "/search?q=x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join("dist", "about.html"), []byte("<h1>About</h1>"), 0o644))
	h := New(testConfig(), Options{Fs: fs}).Handler()

	rec := serve(t, h, "/about.html")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<h1>About</h1>", rec.Body.String())

	rec = serve(t, h, "/missing.html")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProbes(t *testing.T) {
	fs := afero.NewMemMapFs()
	h := New(testConfig(), Options{Fs: fs}).Handler()

	assert.Equal(t, http.StatusOK, serve(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, h, "/readyz").Code)

	writeIndex(t, fs)
	rec := serve(t, h, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	var ready map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	assert.Equal(t, "ready", ready["status"])
	assert.InDelta(t, 2, ready["documents"], 0)
}

func TestMetricsEndpoint(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeIndex(t, fs)
	reg := metrics.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	cfg := testConfig()
	cfg.Server.Metrics = true
	h := New(cfg, Options{Fs: fs, Recorder: rec, PrometheusHandler: metrics.HTTPHandler(reg)}).Handler()

	serve(t, h, "/search?q=hello")
	res := serve(t, h, "/metrics")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "wikii_search_queries_total")

	cfg.Server.Metrics = false
	h = New(cfg, Options{Fs: fs, PrometheusHandler: metrics.HTTPHandler(reg)}).Handler()
	assert.Equal(t, http.StatusNotFound, serve(t, h, "/metrics").Code)
}

func TestStartStop(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeIndex(t, fs)
	s := New(testConfig(), Options{Fs: fs, Addr: "127.0.0.1:0"})
	require.NoError(t, s.Start(context.Background()))

	resp, err := http.Get("http://" + s.Addr() + "/search?q=install")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"title":"Setup"`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
