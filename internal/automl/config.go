package automl

import (
	"net/url"
	"time"
)

// Config holds the service client configuration
type Config struct {
	// BaseURL is the AutoML service endpoint
	BaseURL string `json:"base_url"`

	// Timeout for analysis requests
	Timeout time.Duration `json:"timeout"`

	// TrainTimeout for the training request, which fits every candidate model
	TrainTimeout time.Duration `json:"train_timeout"`

	// UploadTimeout for dataset uploads and model downloads
	UploadTimeout time.Duration `json:"upload_timeout"`

	// UserAgent sent with every request
	UserAgent string `json:"user_agent"`
}

// DefaultConfig returns a default client configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "http://localhost:8000",
		Timeout:       60 * time.Second,
		TrainTimeout:  10 * time.Minute,
		UploadTimeout: 2 * time.Minute,
		UserAgent:     "mlstudio",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return NewConfigurationError("base_url", "base URL is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewConfigurationError("base_url", "base URL must be an absolute http(s) URL")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return NewConfigurationError("base_url", "unsupported scheme "+u.Scheme)
	}

	if c.Timeout <= 0 {
		return NewConfigurationError("timeout", "timeout must be positive")
	}

	if c.TrainTimeout <= 0 {
		return NewConfigurationError("train_timeout", "train timeout must be positive")
	}

	if c.UploadTimeout <= 0 {
		return NewConfigurationError("upload_timeout", "upload timeout must be positive")
	}

	return nil
}
