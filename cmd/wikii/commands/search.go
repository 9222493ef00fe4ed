package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"

	"github.com/xamyl/wikii/internal/foundation/errors"
	"github.com/xamyl/wikii/internal/search"
)

// SearchCmd implements the 'search' command.
type SearchCmd struct {
	Query  string `arg:"" help:"Text to look for"`
	Tokens bool   `help:"Match normalized terms through the inverted index instead of a literal substring"`
	Titles bool   `help:"Print matching titles only"`
}

func (s *SearchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Query == "" {
		return errors.ValidationError("no search query provided").Build()
	}

	idx, err := search.Load(afero.NewOsFs(), cfg.IndexPath())
	if err != nil {
		return err
	}

	var results []search.Entry
	if s.Tokens {
		results = idx.Match(s.Query)
	} else {
		results = search.Query(idx, s.Query)
	}

	out := g.out()
	if s.Titles {
		for _, e := range results {
			fmt.Fprintf(out, "%s\t%s\n", e.ID, e.Title)
		}
		return nil
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode results").Build()
	}
	fmt.Fprintln(out, string(data))
	return nil
}
