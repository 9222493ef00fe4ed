package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xamyl/wikii/internal/eventstore"
	"github.com/xamyl/wikii/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.ConfigError("build history is disabled (set history.path)").Build()
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	projection := eventstore.NewBuildHistoryProjection(store, h.Limit)
	if err := projection.Rebuild(context.Background()); err != nil {
		return err
	}

	out := g.out()
	history := projection.GetHistory()
	if len(history) == 0 {
		fmt.Fprintln(out, "No builds recorded")
		return nil
	}
	for _, b := range history {
		fmt.Fprintln(out, formatSummary(b))
	}
	return nil
}

func formatSummary(b eventstore.BuildSummary) string {
	outcome := b.Outcome
	if outcome == "" {
		outcome = b.Status
	}
	line := fmt.Sprintf("%s  %s  %-8s %-9s rendered=%d/%d indexed=%d duration=%s",
		b.StartedAt.Format(time.DateTime), b.BuildID, b.Trigger, outcome,
		b.Rendered, b.Discovered, b.IndexedDocuments, b.Duration.Truncate(time.Millisecond))
	if len(b.FailedDocuments) > 0 {
		line += " failed=" + strings.Join(b.FailedDocuments, ",")
	}
	if b.ErrorMessage != "" {
		line += fmt.Sprintf(" error=%q", b.ErrorStage+": "+b.ErrorMessage)
	}
	return line
}
