package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config is the root configuration passed explicitly to every entry point.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
	Build    BuildConfig    `yaml:"build"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Server   ServerConfig   `yaml:"server"`
	Daemon   DaemonConfig   `yaml:"daemon"`
	History  HistoryConfig  `yaml:"history"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig describes where documents are read from.
type SourceConfig struct {
	Directory string   `yaml:"directory"`
	Extension string   `yaml:"extension"`
	Exclude   []string `yaml:"exclude,omitempty"`
}

// OutputConfig describes the generated site layout. PagesDir, Stylesheet and
// IndexFile are relative to Directory.
type OutputConfig struct {
	Directory  string `yaml:"directory"`
	PagesDir   string `yaml:"pages_dir"`
	Stylesheet string `yaml:"stylesheet"`
	IndexFile  string `yaml:"index_file"`
}

// BuildConfig tunes the build orchestrator.
type BuildConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// MarkdownConfig tunes the renderer.
type MarkdownConfig struct {
	HighlightStyle string `yaml:"highlight_style"`
	// Unsafe passes raw HTML through. Nil means enabled.
	Unsafe *bool `yaml:"unsafe,omitempty"`
}

// ServerConfig configures the query service.
type ServerConfig struct {
	Port            int    `yaml:"port"`
	Metrics         bool   `yaml:"metrics"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DaemonConfig enables background rebuilds while serving.
type DaemonConfig struct {
	Watch    bool   `yaml:"watch"`
	Debounce string `yaml:"debounce"`
	// Schedule is a cron expression; empty disables scheduled rebuilds.
	Schedule string `yaml:"schedule,omitempty"`
}

// HistoryConfig points at the SQLite build history. Empty Path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig configures NATS build notifications. Empty URL disables them.
type NotifyConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject"`
	// Retries is the number of extra publish attempts after a failure.
	Retries    *int   `yaml:"retries,omitempty"`
	Backoff    string `yaml:"backoff,omitempty"` // fixed|linear|exponential
	RetryDelay string `yaml:"retry_delay,omitempty"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// PagesPath is the directory generated pages are written to.
func (c *Config) PagesPath() string {
	return filepath.Join(c.Output.Directory, c.Output.PagesDir)
}

// StylesheetPath is the location of the shared stylesheet.
func (c *Config) StylesheetPath() string {
	return filepath.Join(c.Output.Directory, c.Output.Stylesheet)
}

// IndexPath is the location of the serialized search index.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Output.Directory, c.Output.IndexFile)
}

// AllowRawHTML reports whether raw HTML in documents is passed through.
func (c *Config) AllowRawHTML() bool {
	return c.Markdown.Unsafe == nil || *c.Markdown.Unsafe
}

// Addr is the listen address of the query service.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// DebounceDuration parses Daemon.Debounce, falling back to the default.
func (c *Config) DebounceDuration() time.Duration {
	return parseDurationOr(c.Daemon.Debounce, defaultDebounce)
}

// ShutdownDuration parses Server.ShutdownTimeout, falling back to the default.
func (c *Config) ShutdownDuration() time.Duration {
	return parseDurationOr(c.Server.ShutdownTimeout, defaultShutdownTimeout)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
