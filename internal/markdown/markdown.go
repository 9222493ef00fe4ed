package markdown

import (
	"bytes"
	"fmt"

	"github.com/samber/lo"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/xamyl/wikii/internal/docs"
)

// Options controls rendering behavior.
type Options struct {
	// AllowRawHTML passes raw HTML in documents through unchanged.
	AllowRawHTML bool
}

// LinkReference is one rendered link and whether its target resolved.
type LinkReference struct {
	Target string
	Text   string
	Valid  bool
}

// Fragment is the HTML body produced for one document.
type Fragment struct {
	HTML  string
	Links []LinkReference
}

// InvalidLinks counts unresolved link references.
func (f Fragment) InvalidLinks() int {
	return lo.CountBy(f.Links, func(l LinkReference) bool { return !l.Valid })
}

// Renderer converts markdown to HTML fragments. A Renderer is bound to one
// SourceSet snapshot and may be shared between goroutines.
type Renderer struct {
	known docs.SourceSet
	md    goldmark.Markdown
}

// NewRenderer builds a Renderer resolving links against known.
func NewRenderer(known docs.SourceSet, opts Options) *Renderer {
	rendererOpts := []renderer.Option{
		renderer.WithNodeRenderers(
			util.Prioritized(&linkRenderer{known: known}, 100),
			util.Prioritized(&codeRenderer{highlighter: NewHighlighter()}, 100),
		),
	}
	if opts.AllowRawHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	return &Renderer{
		known: known,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(rendererOpts...),
		),
	}
}

// Render converts src to an HTML fragment and records every link it rendered.
func (r *Renderer) Render(src []byte) (Fragment, error) {
	root := r.md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, root); err != nil {
		return Fragment{}, fmt.Errorf("render markdown: %w", err)
	}

	return Fragment{HTML: buf.String(), Links: r.collectLinks(root, src)}, nil
}

func (r *Renderer) collectLinks(root gmast.Node, src []byte) []LinkReference {
	refs := make([]LinkReference, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			target := string(node.Destination)
			refs = append(refs, LinkReference{
				Target: target,
				Text:   plainText(node, src),
				Valid:  Resolve(r.known, target),
			})
		case *gmast.AutoLink:
			target := string(node.URL(src))
			refs = append(refs, LinkReference{
				Target: target,
				Text:   string(node.Label(src)),
				Valid:  node.AutoLinkType != gmast.AutoLinkEmail && Resolve(r.known, target),
			})
		}
		return gmast.WalkContinue, nil
	})
	return refs
}
