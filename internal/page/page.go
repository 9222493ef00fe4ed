// Package page wraps rendered fragments in the site's page template.
package page

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed assets/page.html.tmpl
var pageTemplate string

var tmpl = template.Must(template.New("page").Parse(pageTemplate))

// Options controls page assembly.
type Options struct {
	// PagesDir is the pages directory relative to the output root.
	PagesDir string
	// Stylesheet is the stylesheet file name at the output root.
	Stylesheet string
}

// Page is a complete HTML document ready to be written.
type Page struct {
	Filename string
	HTML     []byte
}

type pageData struct {
	Title      string
	Stylesheet string
	Content    template.HTML
}

// Title derives the page title from a slug by uppercasing its first rune.
func Title(slug string) string {
	r, size := utf8.DecodeRuneInString(slug)
	if r == utf8.RuneError {
		return slug
	}
	return string(unicode.ToUpper(r)) + slug[size:]
}

// Filename maps a source file name to its page file name.
func Filename(sourceName string) string {
	base := filepath.Base(sourceName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".html"
}

// StylesheetHref is the stylesheet location as seen from a page in pagesDir.
func StylesheetHref(pagesDir, stylesheet string) string {
	clean := path.Clean(filepath.ToSlash(pagesDir))
	if clean == "." || clean == "" {
		return stylesheet
	}
	depth := strings.Count(clean, "/") + 1
	return strings.Repeat("../", depth) + stylesheet
}

// Assemble wraps fragment in the page template for slug.
func Assemble(fragment, slug string, opts Options) (Page, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, pageData{
		Title:      Title(slug),
		Stylesheet: StylesheetHref(opts.PagesDir, opts.Stylesheet),
		Content:    template.HTML(fragment), //nolint:gosec // fragment is renderer output
	})
	if err != nil {
		return Page{}, fmt.Errorf("execute page template for %s: %w", slug, err)
	}
	return Page{Filename: slug + ".html", HTML: buf.Bytes()}, nil
}
