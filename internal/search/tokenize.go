package search

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Token is a normalized term and its position in the field.
type Token struct {
	Term     string
	Position int
}

// Tokenizer splits text into case-folded, NFC-normalized terms. A Tokenizer
// is not safe for concurrent use.
type Tokenizer struct {
	fold cases.Caser
}

// NewTokenizer creates a Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{fold: cases.Fold()}
}

// Tokens splits text on anything that is not a letter or digit.
func (t *Tokenizer) Tokens(text string) []Token {
	fields := strings.FieldsFunc(norm.NFC.String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]Token, 0, len(fields))
	for i, f := range fields {
		out = append(out, Token{Term: norm.NFC.String(t.fold.String(f)), Position: i})
	}
	return out
}

// Terms returns just the terms of Tokens.
func (t *Tokenizer) Terms(text string) []string {
	tokens := t.Tokens(text)
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Term
	}
	return out
}

// ExtractText returns the visible text of an HTML document. Script and style
// contents are skipped. Unparseable input is returned unchanged.
func ExtractText(document string) string {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return document
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String()
}
