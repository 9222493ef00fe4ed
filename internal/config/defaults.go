package config

import (
	"runtime"
	"time"
)

const (
	DefaultFile           = "wikii.yaml"
	DefaultSourceDir      = "./docs"
	DefaultExtension      = ".md"
	DefaultOutputDir      = "./dist"
	DefaultStylesheet     = "global.css"
	DefaultIndexFile      = "search_index.json"
	DefaultHighlightStyle = "github"
	DefaultPort           = 4126
	DefaultNotifySubject  = "wikii.build.completed"

	defaultDebounce        = 500 * time.Millisecond
	defaultShutdownTimeout = 5 * time.Second
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Source.Directory == "" {
		cfg.Source.Directory = DefaultSourceDir
	}
	if cfg.Source.Extension == "" {
		cfg.Source.Extension = DefaultExtension
	}

	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Output.Stylesheet == "" {
		cfg.Output.Stylesheet = DefaultStylesheet
	}
	if cfg.Output.IndexFile == "" {
		cfg.Output.IndexFile = DefaultIndexFile
	}

	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = runtime.NumCPU()
	}

	if cfg.Markdown.HighlightStyle == "" {
		cfg.Markdown.HighlightStyle = DefaultHighlightStyle
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ShutdownTimeout == "" {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout.String()
	}

	if cfg.Daemon.Debounce == "" {
		cfg.Daemon.Debounce = defaultDebounce.String()
	}

	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}
