package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/eventstore"
)

// Global is shared state bound into every command's Run method.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing output. Defaults to stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (defaults to ./wikii.yaml when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render every document and rebuild the search index"`
	Index   IndexCmd   `cmd:"" help:"Rebuild the search index from the generated pages"`
	Serve   ServeCmd   `cmd:"" help:"Serve the site and the search endpoint"`
	Search  SearchCmd  `cmd:"" help:"Query the search index from the command line"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the build history"`
	Init    InitCmd    `cmd:"" help:"Create a new wiki project"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig resolves and loads the configuration, then reinstalls the
// default logger from its logging section. -v always wins over the file.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(config.Resolve(root.Config))
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level.SlogLevel()
	if root.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return cfg, nil
}

// openHistory opens the build history store when configured. The returned
// store is nil when history is disabled.
func openHistory(cfg *config.Config) (*eventstore.SQLiteStore, error) {
	if cfg.History.Path == "" {
		return nil, nil
	}
	return eventstore.NewSQLiteStore(cfg.History.Path)
}
