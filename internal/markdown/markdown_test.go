package markdown

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xamyl/wikii/internal/docs"
)

func render(t *testing.T, known docs.SourceSet, src string) Fragment {
	t.Helper()
	frag, err := NewRenderer(known, Options{AllowRawHTML: true}).Render([]byte(src))
	require.NoError(t, err)
	return frag
}

func TestRenderValidAndInvalidLinks(t *testing.T) {
	known := docs.NewSourceSet("index.md", "about.md")

	frag := render(t, known, "[About](about.md) and [Missing](missing.md)\n")

	assert.Contains(t, frag.HTML, `<a href="about.md">About</a>`)
	assert.Contains(t, frag.HTML, `<a href="#">Missing (invalid link)</a>`)
	assert.NotContains(t, frag.HTML, `href="missing.md"`)

	require.Len(t, frag.Links, 2)
	assert.Equal(t, LinkReference{Target: "about.md", Text: "About", Valid: true}, frag.Links[0])
	assert.Equal(t, LinkReference{Target: "missing.md", Text: "Missing", Valid: false}, frag.Links[1])
	assert.Equal(t, 1, frag.InvalidLinks())
}

func TestRenderRootRelativeLinks(t *testing.T) {
	known := docs.NewSourceSet("about.md").WithRoot("docs")

	frag := render(t, known, "[Top](/about.md) [Back](../docs/about.md) [Out](../about.md)\n")

	assert.Contains(t, frag.HTML, `<a href="/about.md">Top</a>`)
	assert.Contains(t, frag.HTML, `<a href="../docs/about.md">Back</a>`)
	assert.Contains(t, frag.HTML, `<a href="#">Out (invalid link)</a>`)
	assert.Equal(t, 1, frag.InvalidLinks())
}

func TestRenderLinkKeepsTitleAndFragment(t *testing.T) {
	known := docs.NewSourceSet("about.md")

	frag := render(t, known, `[About](about.md#team "The team")`+"\n")
	assert.Contains(t, frag.HTML, `<a href="about.md#team" title="The team">About</a>`)
}

func TestRenderLinkWithInlineMarkup(t *testing.T) {
	known := docs.NewSourceSet("about.md")

	frag := render(t, known, "[**Bold** about](about.md) [*gone*](gone.md)\n")
	assert.Contains(t, frag.HTML, `<a href="about.md"><strong>Bold</strong> about</a>`)
	assert.Contains(t, frag.HTML, `<a href="#"><em>gone</em> (invalid link)</a>`)
	assert.Equal(t, "Bold about", frag.Links[0].Text)
}

func TestRenderExternalLinksAreInvalid(t *testing.T) {
	frag := render(t, docs.NewSourceSet(), "[Site](https://example.com) <https://example.com/x>\n")

	assert.Contains(t, frag.HTML, `<a href="#">Site (invalid link)</a>`)
	assert.Contains(t, frag.HTML, `<a href="#">https://example.com/x (invalid link)</a>`)
	assert.Equal(t, 2, frag.InvalidLinks())
}

func TestRenderEmptyDocument(t *testing.T) {
	frag := render(t, docs.NewSourceSet(), "")
	assert.Equal(t, "", frag.HTML)
	assert.Empty(t, frag.Links)
}

func TestRenderHeadingsWithoutIDs(t *testing.T) {
	frag := render(t, docs.NewSourceSet(), "# Title\n\nBody text.\n")
	assert.Contains(t, frag.HTML, "<h1>Title</h1>")
	assert.Contains(t, frag.HTML, "<p>Body text.</p>")
}

func TestRenderGFMTable(t *testing.T) {
	frag := render(t, docs.NewSourceSet(), "| a | b |\n|---|---|\n| 1 | 2 |\n")
	assert.Contains(t, frag.HTML, "<table>")
	assert.Contains(t, frag.HTML, "<td>1</td>")
}

func TestRenderRawHTML(t *testing.T) {
	src := "<div class=\"note\">hi</div>\n"

	frag := render(t, docs.NewSourceSet(), src)
	assert.Contains(t, frag.HTML, `<div class="note">hi</div>`)

	safe, err := NewRenderer(docs.NewSourceSet(), Options{}).Render([]byte(src))
	require.NoError(t, err)
	assert.NotContains(t, safe.HTML, `<div class="note">`)
}

func TestRenderFencedCodeWithKnownLanguage(t *testing.T) {
	frag := render(t, docs.NewSourceSet(), "```go\nfunc main() {}\n```\n")

	assert.Contains(t, frag.HTML, `<pre class="chroma"><code class="hljs go">`)
	assert.Contains(t, frag.HTML, `<span class="kd">func</span>`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(frag.HTML), "</code></pre>"))
}

func TestRenderPlainTextCode(t *testing.T) {
	frag := render(t, docs.NewSourceSet(), "```text\n<b>not bold</b>\n```\n")

	assert.Contains(t, frag.HTML, `<code class="hljs">`)
	assert.Contains(t, frag.HTML, "&lt;b&gt;not bold&lt;/b&gt;")
}

func TestRenderUnhintedCodeIsDetected(t *testing.T) {
	src := "```\nimport os\n\ndef greet(name):\n    if name is None:\n        return \"nobody\"\n    print(name)\n```\n"
	frag := render(t, docs.NewSourceSet(), src)

	assert.Contains(t, frag.HTML, `<code class="hljs python">`)
	assert.Contains(t, frag.HTML, `<span class="k`)
}

func TestLexerDetection(t *testing.T) {
	assert.Equal(t, "python", LanguageClass(Lexer("", "import os\n\ndef main():\n    print(os.getcwd())\n")))
	assert.Equal(t, "go", LanguageClass(Lexer("", "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println(1) }\n")))
	assert.Equal(t, "bash", LanguageClass(Lexer("", "#!/bin/bash\necho hi\n")))
	assert.NotEqual(t, "gdscript3", LanguageClass(Lexer("", "const x = require('fs');\nfunction read(p) {\n  return x.readFileSync(p, 'utf8');\n}\n")))
	assert.Equal(t, "", LanguageClass(Lexer("", "")))
	assert.Equal(t, "", LanguageClass(Lexer("nosuchlanguage", "")))
}

func TestRenderCodeIgnoresLinks(t *testing.T) {
	frag := render(t, docs.NewSourceSet(), "    [x](missing.md)\n")
	assert.NotContains(t, frag.HTML, "invalid link")
	assert.Empty(t, frag.Links)
}

func TestRendererConcurrentUse(t *testing.T) {
	r := NewRenderer(docs.NewSourceSet("a.md"), Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			frag, err := r.Render([]byte("[A](a.md)\n\n```go\nx := 1\n```\n"))
			assert.NoError(t, err)
			assert.Contains(t, frag.HTML, `<a href="a.md">A</a>`)
		}()
	}
	wg.Wait()
}
