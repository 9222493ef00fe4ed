package page

import (
	"bytes"
	_ "embed"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

//go:embed assets/base.css
var baseCSS []byte

// Stylesheet returns the shared site stylesheet: the base rules followed by
// the highlight rules for the named chroma style. Unknown styles fall back to
// chroma's default.
func Stylesheet(style string) ([]byte, error) {
	s := styles.Get(style)

	var buf bytes.Buffer
	buf.Write(baseCSS)
	fmt.Fprintf(&buf, "\n/* Syntax highlighting: %s */\n", s.Name)

	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, s); err != nil {
		return nil, fmt.Errorf("write highlight css for %s: %w", style, err)
	}
	return buf.Bytes(), nil
}
