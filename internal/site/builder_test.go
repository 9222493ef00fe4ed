package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/docs"
	"github.com/xamyl/wikii/internal/foundation/errors"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Source.Directory = "docs"
	cfg.Output.Directory = "dist"
	cfg.Build.Concurrency = 2
	return cfg
}

func writeSources(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("docs", name), []byte(content), 0o644))
	}
}

func readPage(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, filepath.Join("dist", name))
	require.NoError(t, err)
	return string(b)
}

func TestBuildLinkScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSources(t, fs, map[string]string{
		"index.md": "# Home\n\n[About](about.md) and [Missing](missing.md)\n",
		"about.md": "About us.\n",
	})

	report, err := NewBuilder(testConfig(), WithFs(fs)).Build(context.Background())
	require.NoError(t, err)

	index := readPage(t, fs, "index.html")
	assert.Contains(t, index, `<a href="about.md">About</a>`)
	assert.Contains(t, index, `<a href="#">Missing (invalid link)</a>`)
	assert.Contains(t, index, "<title>Index</title>")
	assert.Contains(t, index, `<link rel="stylesheet" href="global.css">`)

	about := readPage(t, fs, "about.html")
	assert.Contains(t, about, "<h1>About</h1>")
	assert.Contains(t, about, "<p>About us.</p>")

	assert.Equal(t, 2, report.Discovered)
	assert.Equal(t, 2, report.Rendered)
	assert.Equal(t, 0, report.Failed())
	assert.Equal(t, 1, report.InvalidLinks)
	assert.Equal(t, []string{"about.html", "index.html"}, report.Pages)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	assert.Len(t, report.Fingerprints, 2)
	assert.NotEmpty(t, report.SourceHash)
}

func TestBuildFilenameMappingAndEligibility(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSources(t, fs, map[string]string{
		"getting-started.md": "Hi\n",
		"notes.txt":          "not markdown\n",
		"sub/nested.md":      "not recursed\n",
	})

	report, err := NewBuilder(testConfig(), WithFs(fs)).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"getting-started.html"}, report.Pages)
	assert.Contains(t, readPage(t, fs, "getting-started.html"), "<title>Getting-started</title>")

	exists, err := afero.Exists(fs, filepath.Join("dist", "nested.html"))
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = afero.Exists(fs, filepath.Join("dist", "notes.html"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBuildWritesStylesheetOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSources(t, fs, map[string]string{"a.md": "```go\nx := 1\n```\n"})

	_, err := NewBuilder(testConfig(), WithFs(fs)).Build(context.Background())
	require.NoError(t, err)

	css := readPage(t, fs, "global.css")
	assert.Contains(t, css, ".chroma .")
	assert.Contains(t, readPage(t, fs, "a.html"), `<pre class="chroma"><code class="hljs go">`)
}

func TestBuildIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSources(t, fs, map[string]string{
		"index.md": "# Home\n\nSee [setup](setup.md).\n",
		"setup.md": "```sh\nmake install\n```\n",
	})
	builder := NewBuilder(testConfig(), WithFs(fs))

	_, err := builder.Build(context.Background())
	require.NoError(t, err)
	first := map[string]string{
		"index.html": readPage(t, fs, "index.html"),
		"setup.html": readPage(t, fs, "setup.html"),
		"global.css": readPage(t, fs, "global.css"),
	}

	_, err = builder.Build(context.Background())
	require.NoError(t, err)
	for name, content := range first {
		assert.Equal(t, content, readPage(t, fs, name), name)
	}
}

func TestBuildPagesDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSources(t, fs, map[string]string{"index.md": "x\n"})
	cfg := testConfig()
	cfg.Output.PagesDir = "pages"

	_, err := NewBuilder(cfg, WithFs(fs)).Build(context.Background())
	require.NoError(t, err)

	html := readPage(t, fs, filepath.Join("pages", "index.html"))
	assert.Contains(t, html, `href="../global.css"`)
	_, err = fs.Stat(filepath.Join("dist", "global.css"))
	require.NoError(t, err)
}

func TestBuildEmptySource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("docs", 0o755))

	report, err := NewBuilder(testConfig(), WithFs(fs)).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Discovered)
	assert.Empty(t, report.Pages)
	assert.Equal(t, OutcomeSuccess, report.Outcome)

	isDir, err := afero.DirExists(fs, "dist")
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestBuildMissingSource(t *testing.T) {
	report, err := NewBuilder(testConfig(), WithFs(afero.NewMemMapFs())).Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Rendered)
}

// failingFs refuses to open one path, simulating an unreadable document.
type failingFs struct {
	afero.Fs
	path string
}

func (f failingFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == f.path {
		return nil, os.ErrPermission
	}
	return f.Fs.Open(name)
}

func TestBuildContinuesPastFailures(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeSources(t, mem, map[string]string{
		"good.md": "fine\n",
		"bad.md":  "unreadable\n",
		"also.md": "fine too\n",
	})
	fs := failingFs{Fs: mem, path: filepath.Join("docs", "bad.md")}

	report, err := NewBuilder(testConfig(), WithFs(fs)).Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryBuild))

	assert.Equal(t, 3, report.Discovered)
	assert.Equal(t, 2, report.Rendered)
	assert.Equal(t, 1, report.Failed())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "bad.md", report.Failures[0].Document)
	assert.Equal(t, StageRead, report.Failures[0].Stage)
	assert.True(t, errors.HasCategory(report.Failures[0].Err, errors.CategoryFileSystem))
	assert.Contains(t, report.Failures[0].Message, "failed to read document")
	ce, ok := errors.AsClassified(report.Failures[0].Err)
	require.True(t, ok)
	assert.True(t, ce.CanRetry())
	assert.Equal(t, "bad.md", ce.Context()["document"])
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, []string{"also.html", "good.html"}, report.Pages)
}

func TestBuildExcludesAndMissingAssets(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSources(t, fs, map[string]string{
		"index.md":     "![logo](img/logo.png) ![gone](img/gone.png) ![remote](https://example.com/x.png)\n",
		"_draft.md":    "skip\n",
		"img/logo.png": "png",
	})
	cfg := testConfig()
	cfg.Source.Exclude = []string{"_*.md"}

	report, err := NewBuilder(cfg, WithFs(fs)).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, report.Pages)
	assert.Equal(t, 1, report.MissingAssets)
}

func TestClassifyStage(t *testing.T) {
	cause := os.ErrInvalid

	render := classifyStage(StageRender, cause).WithCause(cause).Build()
	assert.True(t, render.IsCategory(errors.CategoryRender))
	assert.False(t, render.CanRetry())

	write := classifyStage(StageWrite, cause).WithCause(cause).Build()
	assert.True(t, write.IsCategory(errors.CategoryFileSystem))
	assert.True(t, write.CanRetry())
}

func TestDetectCollisions(t *testing.T) {
	got := detectCollisions([]docs.SourceDocument{
		{Name: "about.md"},
		{Name: "index.md"},
		{Name: "about.md"},
	})
	assert.Equal(t, []string{"about.html"}, got)
}

func TestBuildCaseDistinctNamesDoNotCollide(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSources(t, fs, map[string]string{"A.md": "Upper\n", "a.md": "lower\n"})

	report, err := NewBuilder(testConfig(), WithFs(fs)).Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Collisions)
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Contains(t, readPage(t, fs, "A.html"), "<p>Upper</p>")
	assert.Contains(t, readPage(t, fs, "a.html"), "<p>lower</p>")
}
