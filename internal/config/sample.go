package config

// SampleConfig returns a fully documented configuration file
func SampleConfig() string {
	return `# mlstudio configuration
version: "1.0"

service:
  # Base URL of the AutoML service
  endpoint: http://localhost:8000
  # Default per-request timeout
  timeout: 60s
  # Training runs cross-validation over several models and takes longer
  train_timeout: 10m
  upload_timeout: 2m
  user_agent: mlstudio

pipeline:
  # Target column for training; can also be passed with --target
  target: ""
  # Actions run by "mlstudio run" after the upload, in order.
  # One of: eda, eda-extended, feature-stats, train, explain, download
  steps:
    - eda
    - eda-extended
    - feature-stats
    - train
    - explain
  # Where the download step writes the trained model
  model_path: best_model.pkl
  # Quiet period after a dataset change before "mlstudio watch" re-runs
  watch_debounce: 500ms

notifications:
  # How long a notification stays visible
  ttl: 4s
  # Print notifications to stderr in non-interactive commands
  echo: true

output:
  # text, json, markdown, html or csv
  default_format: text
  # auto, always or never
  color_mode: auto
  emoji: true
  verbose: false
  timestamp_format: "2006-01-02 15:04:05"

history:
  enabled: true
  path: ~/.local/share/mlstudio/history.db
  # Rows shown by "mlstudio history"
  limit: 20

ui:
  # dark or light
  theme: dark
`
}

// MinimalSampleConfig returns a configuration with only the essential settings
func MinimalSampleConfig() string {
	return `version: "1.0"
service:
  endpoint: http://localhost:8000
pipeline:
  target: ""
output:
  default_format: text
`
}
