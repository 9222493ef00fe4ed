package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xamyl/wikii/internal/foundation/errors"
)

// Load reads the configuration file at configPath. An empty path yields the
// defaults. Environment files are loaded first so ${VAR} references resolve.
func Load(configPath string) (*Config, error) {
	if files, err := loadEnvFiles(); err != nil {
		slog.Warn("Failed to load environment file", "error", err)
	} else if len(files) > 0 {
		slog.Debug("Loaded environment files", "files", files)
	}

	cfg := &Config{}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NotFoundError(fmt.Sprintf("configuration file not found: %s", configPath)).
					WithContext("path", configPath).
					Build()
			}
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
				WithContext("path", configPath).
				Build()
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands environment references in data and decodes it into cfg.
func Parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}
	return nil
}

// Resolve picks the config path: the explicit flag value when set, otherwise
// DefaultFile when it exists in the working directory, otherwise "".
func Resolve(flag string) string {
	if flag != "" {
		return flag
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

// Init writes an example configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Build.Concurrency = 4
	example.Source.Exclude = []string{"_*.md", "*.draft.md"}
	example.Daemon.Schedule = "0 */6 * * *"
	example.History.Path = "./wikii-history.db"
	example.Notify.URL = "${NATS_URL}"

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
