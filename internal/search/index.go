// Package search builds, persists and queries the full-text index over generated pages.
package search

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/xamyl/wikii/internal/foundation/errors"
)

const (
	IndexVersion = "1"
	RefField     = "id"
	FieldTitle   = "title"
	FieldContent = "content"
)

// Entry is one indexed page.
type Entry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Posting records where a term occurs in one field of one entry.
type Posting struct {
	Ref       string `json:"ref"`
	Field     string `json:"field"`
	Frequency int    `json:"tf"`
	Positions []int  `json:"positions"`
}

// Index is the serialized search artifact.
type Index struct {
	Version       string                    `json:"version"`
	Ref           string                    `json:"ref"`
	Fields        []string                  `json:"fields"`
	InvertedIndex map[string][]Posting      `json:"invertedIndex"`
	FieldLengths  map[string]map[string]int `json:"fieldLengths"`
	Docs          []Entry                   `json:"docs"`
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		Version:       IndexVersion,
		Ref:           RefField,
		Fields:        []string{FieldTitle, FieldContent},
		InvertedIndex: map[string][]Posting{},
		FieldLengths:  map[string]map[string]int{},
		Docs:          []Entry{},
	}
}

// Add appends e and indexes its title and the visible text of its content.
func (idx *Index) Add(tok *Tokenizer, e Entry) {
	idx.Docs = append(idx.Docs, e)
	idx.FieldLengths[e.ID] = map[string]int{
		FieldTitle:   idx.addField(tok, e.ID, FieldTitle, e.Title),
		FieldContent: idx.addField(tok, e.ID, FieldContent, ExtractText(e.Content)),
	}
}

func (idx *Index) addField(tok *Tokenizer, ref, field, text string) int {
	tokens := tok.Tokens(text)
	positions := make(map[string][]int)
	var order []string
	for _, t := range tokens {
		if _, ok := positions[t.Term]; !ok {
			order = append(order, t.Term)
		}
		positions[t.Term] = append(positions[t.Term], t.Position)
	}
	for _, term := range order {
		idx.InvertedIndex[term] = append(idx.InvertedIndex[term], Posting{
			Ref:       ref,
			Field:     field,
			Frequency: len(positions[term]),
			Positions: positions[term],
		})
	}
	return len(tokens)
}

// Lookup returns the postings of a single already-normalized term.
func (idx *Index) Lookup(term string) []Posting {
	return idx.InvertedIndex[term]
}

// Match returns the entries containing every term of query, in id order.
func (idx *Index) Match(query string) []Entry {
	terms := NewTokenizer().Terms(query)
	out := make([]Entry, 0)
	if len(terms) == 0 {
		return out
	}

	var refs map[string]struct{}
	for _, term := range terms {
		found := make(map[string]struct{})
		for _, p := range idx.Lookup(term) {
			if refs == nil {
				found[p.Ref] = struct{}{}
			} else if _, ok := refs[p.Ref]; ok {
				found[p.Ref] = struct{}{}
			}
		}
		refs = found
		if len(refs) == 0 {
			return out
		}
	}

	for _, e := range idx.Docs {
		if _, ok := refs[e.ID]; ok {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return refLess(out[i].ID, out[j].ID) })
	return out
}

func refLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// Write serializes the index to path, replacing any previous artifact.
func (idx *Index) Write(fs afero.Fs, path string) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure index directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename index: %w", err)
	}
	return nil
}

// Load reads and decodes the index at path. A missing artifact is a
// retryable search error; an undecodable one is an internal error.
func Load(fs afero.Fs, path string) (*Index, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.SearchError("search index not available").
				WithCause(err).
				WithContext("path", path).
				Retryable().
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read search index").
			WithContext("path", path).
			Build()
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "search index is corrupt").
			WithContext("path", path).
			Build()
	}
	if idx.Docs == nil {
		idx.Docs = []Entry{}
	}
	return &idx, nil
}

// Query returns the entries whose title or content contains q as a literal,
// case-sensitive substring. The result is never nil.
func Query(idx *Index, q string) []Entry {
	if idx == nil {
		return []Entry{}
	}
	return filterEntries(idx.Docs, func(e Entry) bool {
		return strings.Contains(e.Title, q) || strings.Contains(e.Content, q)
	})
}
