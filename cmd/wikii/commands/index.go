package commands

import (
	"context"
	"fmt"

	"github.com/xamyl/wikii/internal/search"
)

// IndexCmd implements the 'index' command.
type IndexCmd struct{}

func (i *IndexCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	idx, err := search.NewIndexBuilder(cfg).Build(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "Search index written to %s (%d documents)\n", cfg.IndexPath(), len(idx.Docs))
	return nil
}
