package config

import (
	"fmt"
	"time"

	"github.com/yildizm/mlstudio/internal/automl"
)

// Config holds the complete application configuration
type Config struct {
	Version       string              `yaml:"version" json:"version"`
	Service       ServiceConfig       `yaml:"service" json:"service"`
	Pipeline      PipelineConfig      `yaml:"pipeline" json:"pipeline"`
	Notifications NotificationsConfig `yaml:"notifications" json:"notifications"`
	Output        OutputConfig        `yaml:"output" json:"output"`
	History       HistoryConfig       `yaml:"history" json:"history"`
	UI            UIConfig            `yaml:"ui" json:"ui"`
}

// ServiceConfig configures the AutoML service connection
type ServiceConfig struct {
	Endpoint      string        `yaml:"endpoint" json:"endpoint"`             // service base URL
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`               // default request timeout
	TrainTimeout  time.Duration `yaml:"train_timeout" json:"train_timeout"`   // training request timeout
	UploadTimeout time.Duration `yaml:"upload_timeout" json:"upload_timeout"` // upload request timeout
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
}

// PipelineConfig configures the unattended run
type PipelineConfig struct {
	Target        string        `yaml:"target" json:"target"`                 // training target column
	Steps         []string      `yaml:"steps" json:"steps"`                   // actions run after upload, in order
	ModelPath     string        `yaml:"model_path" json:"model_path"`         // where download writes the model
	WatchDebounce time.Duration `yaml:"watch_debounce" json:"watch_debounce"` // quiet period before a re-run
}

// NotificationsConfig configures the notification queue
type NotificationsConfig struct {
	TTL  time.Duration `yaml:"ttl" json:"ttl"`   // how long a notification stays visible
	Echo bool          `yaml:"echo" json:"echo"` // print notifications to stderr in non-interactive commands
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat   string `yaml:"default_format" json:"default_format"`     // text|json|markdown|html|csv
	ColorMode       string `yaml:"color_mode" json:"color_mode"`             // auto|always|never
	Emoji           bool   `yaml:"emoji" json:"emoji"`                       // emoji in text output
	Verbose         bool   `yaml:"verbose" json:"verbose"`                   // default verbosity
	TimestampFormat string `yaml:"timestamp_format" json:"timestamp_format"` // time format string
}

// HistoryConfig configures the run history database
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Limit   int    `yaml:"limit" json:"limit"` // rows shown by `history`
}

// UIConfig configures the interactive dashboard
type UIConfig struct {
	Theme string `yaml:"theme" json:"theme"` // dark|light
}

// Step names accepted in pipeline.steps
const (
	StepEDA          = "eda"
	StepExtendedEDA  = "eda-extended"
	StepFeatureStats = "feature-stats"
	StepTrain        = "train"
	StepExplain      = "explain"
	StepDownload     = "download"
)

var validSteps = map[string]bool{
	StepEDA:          true,
	StepExtendedEDA:  true,
	StepFeatureStats: true,
	StepTrain:        true,
	StepExplain:      true,
	StepDownload:     true,
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	client := automl.DefaultConfig()
	return &Config{
		Version: "1.0",
		Service: ServiceConfig{
			Endpoint:      client.BaseURL,
			Timeout:       client.Timeout,
			TrainTimeout:  client.TrainTimeout,
			UploadTimeout: client.UploadTimeout,
			UserAgent:     client.UserAgent,
		},
		Pipeline: PipelineConfig{
			Steps:         []string{StepEDA, StepExtendedEDA, StepFeatureStats, StepTrain, StepExplain},
			ModelPath:     "best_model.pkl",
			WatchDebounce: 500 * time.Millisecond,
		},
		Notifications: NotificationsConfig{
			TTL:  4 * time.Second,
			Echo: true,
		},
		Output: OutputConfig{
			DefaultFormat:   "text",
			ColorMode:       "auto",
			Emoji:           true,
			Verbose:         false,
			TimestampFormat: "2006-01-02 15:04:05",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "~/.local/share/mlstudio/history.db",
			Limit:   20,
		},
		UI: UIConfig{
			Theme: "dark",
		},
	}
}

// ClientConfig converts the service section into the HTTP client configuration
func (c *Config) ClientConfig() *automl.Config {
	return &automl.Config{
		BaseURL:       c.Service.Endpoint,
		Timeout:       c.Service.Timeout,
		TrainTimeout:  c.Service.TrainTimeout,
		UploadTimeout: c.Service.UploadTimeout,
		UserAgent:     c.Service.UserAgent,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateServiceConfig(); err != nil {
		return err
	}
	if err := c.validatePipelineConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if err := c.validateMiscConfig(); err != nil {
		return err
	}
	return nil
}

// validateServiceConfig defers to the client's own validation
func (c *Config) validateServiceConfig() error {
	if err := c.ClientConfig().Validate(); err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}
	return nil
}

// validatePipelineConfig validates pipeline step names and ordering
func (c *Config) validatePipelineConfig() error {
	trained := false
	for _, step := range c.Pipeline.Steps {
		if !validSteps[step] {
			return fmt.Errorf("invalid pipeline step: %s (must be one of: eda, eda-extended, feature-stats, train, explain, download)", step)
		}
		switch step {
		case StepTrain:
			trained = true
		case StepExplain, StepDownload:
			if !trained {
				return fmt.Errorf("pipeline step %s must come after train", step)
			}
		}
	}
	if c.Pipeline.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must be non-negative")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"text":     true,
			"json":     true,
			"markdown": true,
			"html":     true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: text, json, markdown, html, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}

// validateMiscConfig validates notifications, history and ui sections
func (c *Config) validateMiscConfig() error {
	if c.Notifications.TTL <= 0 {
		return fmt.Errorf("notifications ttl must be greater than 0")
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history path is required when history is enabled")
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history limit must be non-negative")
	}
	if c.UI.Theme != "" && c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return fmt.Errorf("invalid ui theme: %s (must be one of: dark, light)", c.UI.Theme)
	}
	return nil
}
