package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-enry/go-enry/v2"
	"github.com/yuin/goldmark/util"
)

const plaintext = "plaintext"

// confidentAnalysis is the minimum chroma analyser score trusted without
// classification. Shebangs score 1.0; weak keyword matches score below it.
const confidentAnalysis = 0.5

// classifierCandidates are the languages unhinted code blocks are classified
// into, named as linguist names them.
var classifierCandidates = []string{
	"Python", "JavaScript", "TypeScript", "Go", "Shell", "SQL", "Ruby", "Java",
	"C", "C++", "C#", "Rust", "PHP", "HTML", "CSS", "JSON", "YAML",
}

// Highlighter turns code into class-annotated HTML. Colors live in the
// stylesheet, so one Highlighter serves every style.
type Highlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// NewHighlighter returns a Highlighter emitting class-based token spans.
func NewHighlighter() *Highlighter {
	return &Highlighter{
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true)),
		style:     styles.Fallback,
	}
}

// Lexer picks the lexer for lang. Without a usable hint the code is detected:
// a confident chroma analyser match wins, otherwise the content is classified
// among common languages. Empty code is plain text.
func Lexer(lang, code string) chroma.Lexer {
	if lang != "" {
		if l := lexers.Get(lang); l != nil {
			return l
		}
	}
	if l := detectLexer(code); l != nil {
		return l
	}
	if l := lexers.Get(plaintext); l != nil {
		return l
	}
	return lexers.Fallback
}

func detectLexer(code string) chroma.Lexer {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	if l := lexers.Analyse(code); l != nil {
		if a, ok := l.(chroma.Analyser); ok && a.AnalyseText(code) >= confidentAnalysis {
			return l
		}
	}
	name, _ := enry.GetLanguageByClassifier([]byte(code), classifierCandidates)
	if name == "" {
		return nil
	}
	return lexers.Get(strings.ToLower(name))
}

// LanguageClass is the CSS language class for a lexer, empty for plain text.
func LanguageClass(l chroma.Lexer) string {
	name := strings.ToLower(l.Config().Name)
	if name == plaintext || name == "fallback" {
		return ""
	}
	return name
}

// Highlight writes a complete <pre><code> block for code.
func (h *Highlighter) Highlight(w util.BufWriter, code, lang string) error {
	lexer := Lexer(lang, code)

	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("tokenise %s: %w", lexer.Config().Name, err)
	}

	var body bytes.Buffer
	if err := h.formatter.Format(&body, h.style, it); err != nil {
		return fmt.Errorf("format %s: %w", lexer.Config().Name, err)
	}

	_, _ = w.WriteString(`<pre class="chroma"><code class="hljs`)
	if class := LanguageClass(lexer); class != "" {
		_ = w.WriteByte(' ')
		_, _ = w.Write(util.EscapeHTML([]byte(class)))
	}
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(body.Bytes())
	_, _ = w.WriteString("</code></pre>\n")
	return nil
}
