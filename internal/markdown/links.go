package markdown

import (
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// LinkKind names the markdown construct a Link was found in.
type LinkKind string

const (
	// LinkKindInline is a [text](dest) link.
	LinkKindInline LinkKind = "inline"
	// LinkKindImage is an ![alt](src) image.
	LinkKindImage LinkKind = "image"
	// LinkKindAuto is a <https://...> autolink.
	LinkKindAuto LinkKind = "auto"
	// LinkKindReferenceDefinition is a [label]: dest definition line.
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is one link-like construct and its raw destination.
type Link struct {
	Kind        LinkKind
	Destination string
}

var analysisParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// ExtractLinks parses a markdown body and lists its link-like constructs.
//
// This is an analysis API; nothing is rendered.
func ExtractLinks(body []byte) []Link {
	ctx := parser.NewContext()
	root := analysisParser.Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Reference-style usages resolve to Link nodes with a destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not the AST.
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}

	return links
}

// Images returns the destinations of image links in body.
func Images(body []byte) []string {
	var out []string
	for _, l := range ExtractLinks(body) {
		if l.Kind == LinkKindImage {
			out = append(out, l.Destination)
		}
	}
	return out
}
