package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.mlstudio.yaml",               // Project-specific config (highest priority)
	"~/.config/mlstudio/config.yaml", // User config
	"/etc/mlstudio/config.yaml",      // System config (lowest priority)
}

// EnvPrefix prefixes every environment override
const EnvPrefix = "MLSTUDIO_"

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	getenv      func(string) string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		getenv:      os.Getenv,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.mlstudio.yaml
// 4. ~/.config/mlstudio/config.yaml
// 5. /etc/mlstudio/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// lowest priority first so later files win
		paths := slices.Clone(l.configPaths)
		slices.Reverse(paths)

		for _, path := range paths {
			expandedPath := ExpandPath(path)
			if fileExists(expandedPath) {
				if err := l.loadFromFile(config, expandedPath); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
				}
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile decodes a YAML file over the existing config. Keys absent
// from the file keep their current values.
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() or comes from ConfigPaths
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Service Config
		"SERVICE_ENDPOINT":       func(v string) error { config.Service.Endpoint = v; return nil },
		"SERVICE_TIMEOUT":        func(v string) error { return parseDuration(v, &config.Service.Timeout) },
		"SERVICE_TRAIN_TIMEOUT":  func(v string) error { return parseDuration(v, &config.Service.TrainTimeout) },
		"SERVICE_UPLOAD_TIMEOUT": func(v string) error { return parseDuration(v, &config.Service.UploadTimeout) },
		"SERVICE_USER_AGENT":     func(v string) error { config.Service.UserAgent = v; return nil },

		// Pipeline Config
		"PIPELINE_TARGET":         func(v string) error { config.Pipeline.Target = v; return nil },
		"PIPELINE_MODEL_PATH":     func(v string) error { config.Pipeline.ModelPath = v; return nil },
		"PIPELINE_WATCH_DEBOUNCE": func(v string) error { return parseDuration(v, &config.Pipeline.WatchDebounce) },

		// Notifications Config
		"NOTIFICATIONS_TTL":  func(v string) error { return parseDuration(v, &config.Notifications.TTL) },
		"NOTIFICATIONS_ECHO": func(v string) error { return parseBool(v, &config.Notifications.Echo) },

		// Output Config
		"OUTPUT_DEFAULT_FORMAT":   func(v string) error { config.Output.DefaultFormat = v; return nil },
		"OUTPUT_COLOR_MODE":       func(v string) error { config.Output.ColorMode = v; return nil },
		"OUTPUT_EMOJI":            func(v string) error { return parseBool(v, &config.Output.Emoji) },
		"OUTPUT_VERBOSE":          func(v string) error { return parseBool(v, &config.Output.Verbose) },
		"OUTPUT_TIMESTAMP_FORMAT": func(v string) error { config.Output.TimestampFormat = v; return nil },

		// History Config
		"HISTORY_ENABLED": func(v string) error { return parseBool(v, &config.History.Enabled) },
		"HISTORY_PATH":    func(v string) error { config.History.Path = v; return nil },
		"HISTORY_LIMIT":   func(v string) error { return parseInt(v, &config.History.Limit) },

		// UI Config
		"UI_THEME": func(v string) error { config.UI.Theme = v; return nil },
	}

	for name, setter := range envMappings {
		envVar := EnvPrefix + name
		if value := l.getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// comma-separated list
	if steps := l.getenv(EnvPrefix + "PIPELINE_STEPS"); steps != "" {
		config.Pipeline.Steps = nil
		for _, step := range strings.Split(steps, ",") {
			if step = strings.TrimSpace(step); step != "" {
				config.Pipeline.Steps = append(config.Pipeline.Steps, step)
			}
		}
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, ExpandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := ExpandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") || strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// ExpandPath expands ~ to the home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
