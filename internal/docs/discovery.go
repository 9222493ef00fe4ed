package docs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/xamyl/wikii/internal/config"
	derrors "github.com/xamyl/wikii/internal/docs/errors"
	"github.com/xamyl/wikii/internal/logfields"
)

// SourceDocument is one eligible markdown file in the source directory.
type SourceDocument struct {
	Name    string // File name, e.g. "about.md"
	Path    string // Path on the filesystem (source directory joined with Name)
	Slug    string // Name without its extension
	Content []byte // Raw content, nil until Read
}

// Slug derives the output slug from a source file name by stripping the last extension.
func Slug(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Discover lists eligible documents: non-directory entries directly inside the source
// directory whose name ends with the configured extension and matches no
// exclude pattern. Results are sorted by name; content is not loaded.
func Discover(fs afero.Fs, src config.SourceConfig) ([]SourceDocument, error) {
	if err := checkSourceDir(fs, src.Directory); err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(fs, src.Directory)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrSourceWalkFailed, src.Directory, err)
	}

	docs := make([]SourceDocument, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, src.Extension) {
			continue
		}
		if excluded(name, src.Exclude) {
			slog.Debug("Skipping excluded document", logfields.Document(name))
			continue
		}
		docs = append(docs, SourceDocument{
			Name: name,
			Path: filepath.Join(src.Directory, name),
			Slug: Slug(name),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Read returns a copy of d with Content loaded.
func (d SourceDocument) Read(fs afero.Fs) (SourceDocument, error) {
	content, err := afero.ReadFile(fs, d.Path)
	if err != nil {
		return d, fmt.Errorf("%w: %s: %w", derrors.ErrFileReadFailed, d.Path, err)
	}
	d.Content = content
	return d, nil
}

func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func checkSourceDir(fs afero.Fs, dir string) error {
	info, err := fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", derrors.ErrSourceDirNotFound, dir)
		}
		return fmt.Errorf("%w: %s: %w", derrors.ErrSourceWalkFailed, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", derrors.ErrSourceNotDirectory, dir)
	}
	return nil
}
