package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yildizm/mlstudio/internal/config"
	"github.com/yildizm/mlstudio/internal/emoji"
	"github.com/yildizm/mlstudio/internal/ui"
)

var (
	cfgFile   string
	verbose   bool
	noColor   bool
	noEmoji   bool
	outputFmt string
	endpoint  string

	globalConfig *config.Config
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mlstudio",
		Short: "AutoML pipeline client",
		Long: `mlstudio drives a remote AutoML service: upload a CSV or XLSX dataset,
explore it, train candidate models against a target column and explain the
best one.

Run the whole pipeline unattended with "mlstudio run", or step through it
interactively with "mlstudio tui".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}

			cfg, err := loadGlobalConfig(cmd)
			if err != nil {
				return err
			}
			globalConfig = cfg

			emoji.SetEmojiDisabled(noEmoji)
			mode, err := ui.ParseMode(cfg.UI.Theme)
			if err != nil {
				return err
			}
			ui.SetMode(mode)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "", "output format (text, json, markdown, html, csv)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "AutoML service URL")

	// Add subcommands
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newTUICommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newStatCommand())
	rootCmd.AddCommand(newPlotCommand())
	rootCmd.AddCommand(newDownloadCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

// loadGlobalConfig loads the configuration and applies command line overrides
func loadGlobalConfig(cmd *cobra.Command) (*config.Config, error) {
	// config subcommands load files themselves and must work with a broken one
	if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if endpoint != "" {
		cfg.Service.Endpoint = endpoint
	}
	if outputFmt != "" {
		cfg.Output.DefaultFormat = outputFmt
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.ColorMode = "never"
	}
	if !cfg.Output.Emoji {
		noEmoji = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// GetGlobalConfig returns the configuration loaded for the running command
func GetGlobalConfig() *config.Config {
	if globalConfig == nil {
		return config.DefaultConfig()
	}
	return globalConfig
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mlstudio %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// Global helpers
func isVerbose() bool {
	return GetGlobalConfig().Output.Verbose
}

func getOutputFormat() string {
	return GetGlobalConfig().Output.DefaultFormat
}
