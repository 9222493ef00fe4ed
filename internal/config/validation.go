package config

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/xamyl/wikii/internal/foundation/errors"
)

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateSource,
		validateOutput,
		validateBuild,
		validateServer,
		validateDaemon,
		validateNotify,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateSource(cfg *Config) error {
	ext := cfg.Source.Extension
	if !strings.HasPrefix(ext, ".") || len(ext) < 2 || strings.ContainsAny(ext, `/\`) {
		return invalid("source.extension", ext, "must look like .md")
	}
	for _, pattern := range cfg.Source.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return invalid("source.exclude", pattern, "is not a valid glob pattern")
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if p := cfg.Output.PagesDir; p != "" {
		if filepath.IsAbs(p) {
			return invalid("output.pages_dir", p, "must be relative to output.directory")
		}
		if escapesRoot(p) {
			return invalid("output.pages_dir", p, "must stay inside output.directory")
		}
	}
	for field, name := range map[string]string{
		"output.stylesheet": cfg.Output.Stylesheet,
		"output.index_file": cfg.Output.IndexFile,
	} {
		if name != filepath.Base(name) || name == "." || name == ".." {
			return invalid(field, name, "must be a file name without directories")
		}
	}
	if sameFile(cfg.Output.Stylesheet, cfg.Output.IndexFile) {
		return invalid("output.index_file", cfg.Output.IndexFile, "collides with output.stylesheet")
	}
	return nil
}

func validateBuild(cfg *Config) error {
	if cfg.Build.Concurrency < 1 {
		return invalid("build.concurrency", fmt.Sprint(cfg.Build.Concurrency), "must be at least 1")
	}
	return nil
}

func validateServer(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return invalid("server.port", fmt.Sprint(cfg.Server.Port), "must be between 1 and 65535")
	}
	return validateDuration("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
}

func validateDaemon(cfg *Config) error {
	if err := validateDuration("daemon.debounce", cfg.Daemon.Debounce); err != nil {
		return err
	}
	if s := strings.TrimSpace(cfg.Daemon.Schedule); s != "" && len(strings.Fields(s)) != 5 {
		return invalid("daemon.schedule", s, "must be a five-field cron expression")
	}
	return nil
}

func validateNotify(cfg *Config) error {
	if cfg.Notify.Retries != nil && *cfg.Notify.Retries < 0 {
		return invalid("notify.retries", fmt.Sprint(*cfg.Notify.Retries), "cannot be negative")
	}
	if cfg.Notify.RetryDelay != "" {
		return validateDuration("notify.retry_delay", cfg.Notify.RetryDelay)
	}
	return nil
}

func validateDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return invalid(field, raw, "is not a duration")
	}
	if d <= 0 {
		return invalid(field, raw, "must be positive")
	}
	return nil
}

func escapesRoot(p string) bool {
	clean := path.Clean(filepath.ToSlash(p))
	return clean == ".." || strings.HasPrefix(clean, "../")
}

func sameFile(a, b string) bool {
	return strings.EqualFold(a, b)
}

func invalid(field, value, reason string) error {
	return errors.ConfigError(fmt.Sprintf("%s %q %s", field, value, reason)).
		WithContext("field", field).
		Build()
}
