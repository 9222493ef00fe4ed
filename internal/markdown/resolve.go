package markdown

import (
	"net/url"
	"path"
	"strings"

	"github.com/xamyl/wikii/internal/docs"
)

// Resolve reports whether target names a file or directory in known.
//
// The fragment and query are dropped, the remainder is percent-decoded and
// joined against the source root. A leading slash is root-relative, and a
// path may climb out through ".." as long as it comes straight back in
// through the root's own name. Empty paths, paths that stay outside the root
// and anything with a URL scheme are unresolvable.
func Resolve(known docs.SourceSet, target string) bool {
	if target == "" || hasScheme(target) || strings.HasPrefix(target, "//") {
		return false
	}

	p := target
	if i := strings.IndexAny(p, "#?"); i >= 0 {
		p = p[:i]
	}
	decoded, err := url.PathUnescape(p)
	if err != nil {
		return false
	}
	decoded = strings.TrimPrefix(decoded, "/")
	if decoded == "" {
		return false
	}

	rel, ok := withinRoot(known.Root(), path.Clean(decoded))
	if !ok {
		return false
	}
	return known.Contains(rel)
}

// withinRoot maps a cleaned relative path onto the source root. Only a single
// step up is recoverable, and only when it re-enters through root.
func withinRoot(root, clean string) (string, bool) {
	if rest, up := strings.CutPrefix(clean, "../"); up {
		if root == "" {
			return "", false
		}
		clean, up = strings.CutPrefix(rest, root+"/")
		if !up {
			return "", false
		}
	}
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}

// hasScheme matches RFC 3986 "scheme:" prefixes such as https: or mailto:.
func hasScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			return i > 0
		default:
			return false
		}
	}
	return false
}
