package docs

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	derrors "github.com/xamyl/wikii/internal/docs/errors"
)

// SourceSet is an immutable snapshot of every file and directory below the
// source root, keyed by slash-separated relative path. Link resolution is a
// lookup in this set; it never touches the filesystem.
type SourceSet struct {
	root  string
	paths map[string]struct{}
}

// NewSourceSet builds a set from relative paths. Paths are cleaned and
// normalized to forward slashes.
func NewSourceSet(paths ...string) SourceSet {
	set := SourceSet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		set.paths[path.Clean(filepath.ToSlash(p))] = struct{}{}
	}
	return set
}

// Snapshot walks root recursively and captures every entry below it.
func Snapshot(afs afero.Fs, root string) (SourceSet, error) {
	var paths []string
	err := afero.Walk(afs, root, func(p string, _ fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel != "." {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return SourceSet{}, fmt.Errorf("%w: %s: %w", derrors.ErrSourceWalkFailed, root, err)
	}
	return NewSourceSet(paths...).WithRoot(rootName(root)), nil
}

func rootName(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	name := filepath.Base(filepath.Clean(root))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// WithRoot returns a copy of s that knows the base name of its source
// directory, so "../<root>/x" can be recognised as re-entering it.
func (s SourceSet) WithRoot(name string) SourceSet {
	s.root = name
	return s
}

// Root is the base name of the source directory, or "" when unknown.
func (s SourceSet) Root() string {
	return s.root
}

// Contains reports whether rel names a captured file or directory.
func (s SourceSet) Contains(rel string) bool {
	_, ok := s.paths[rel]
	return ok
}

// Len returns the number of captured paths.
func (s SourceSet) Len() int {
	return len(s.paths)
}

// sorted returns the captured paths in sorted order.
func (s SourceSet) sorted() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
