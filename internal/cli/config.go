package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yildizm/mlstudio/internal/config"
	"github.com/yildizm/mlstudio/internal/emoji"
)

// newConfigCommand groups the configuration file helpers
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mlstudio configuration",
		Long: `Create, inspect and check mlstudio configuration files.

Settings are merged from built-in defaults, the configuration
files on the search path (or --config alone) and MLSTUDIO_* environment variables.`,
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigPathCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		outputPath string
		minimal    bool
		force      bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Long: `Write a documented sample configuration with every option set to its
default. --minimal writes only the service endpoint, target and format.`,
		Example: `  mlstudio config init
  mlstudio config init --minimal
  mlstudio config init --output ~/.config/mlstudio/config.yaml --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := outputPath
			if path == "" {
				path = ".mlstudio.yaml"
			}
			return initConfigFile(cmd.OutOrStdout(), config.ExpandPath(path), minimal, force)
		},
	}

	initCmd.Flags().StringVarP(&outputPath, "output", "o", "", "where to write the file (default: .mlstudio.yaml)")
	initCmd.Flags().BoolVarP(&minimal, "minimal", "m", false, "write only the essential settings")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing file")

	return initCmd
}

// initConfigFile writes a sample configuration to path
func initConfigFile(w io.Writer, path string, minimal, force bool) error {
	if fileExists(path) && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	content, kind := config.SampleConfig(), "full"
	if minimal {
		content, kind = config.MinimalSampleConfig(), "minimal"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "%sConfiguration file created at: %s (%s)\n", emoji.Prefix("success"), path, kind)
	return nil
}

func newConfigShowCommand() *cobra.Command {
	var format string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration mlstudio would run with: defaults, overlaid by
the configuration file, overlaid by MLSTUDIO_* environment variables.`,
		Example: `  mlstudio config show
  mlstudio config show --format json
  mlstudio --config ./ci.yaml config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return printConfig(cmd.OutOrStdout(), cfg, format)
		},
	}

	showCmd.Flags().StringVarP(&format, "format", "f", "yaml", "encoding to print (yaml, json)")

	return showCmd
}

func printConfig(w io.Writer, cfg *config.Config, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "yaml":
		data, err = yaml.Marshal(cfg)
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported format: %s (use json or yaml)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config as %s: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file",
		Long: `Load the configuration and report the first problem found: malformed
YAML, unknown keys, unknown pipeline steps or output formats, or negative
timeouts and intervals.`,
		Example: `  mlstudio config validate
  mlstudio --config ./ci.yaml config validate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				fmt.Fprintf(out, "%sConfiguration validation failed:\n   %v\n", emoji.Prefix("error"), err)
				return err
			}

			fmt.Fprintf(out, "%sConfiguration is valid\n", emoji.Prefix("success"))
			summary := [][2]string{
				{"Version", cfg.Version},
				{"Endpoint", cfg.Service.Endpoint},
				{"Output Format", cfg.Output.DefaultFormat},
				{"Steps", strings.Join(cfg.Pipeline.Steps, ", ")},
			}
			for _, row := range summary {
				fmt.Fprintf(out, "   %s: %s\n", row[0], row[1])
			}
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "List where configuration files are looked up",
		Long: `List the configuration search path from highest to lowest priority and
mark which files exist. Every existing file is merged, with higher priority
files overriding lower ones.`,
		Run: func(cmd *cobra.Command, args []string) {
			printConfigPaths(cmd.OutOrStdout())
		},
	}
}

func printConfigPaths(w io.Writer) {
	fmt.Fprintln(w, "Configuration search path (highest priority first):")
	for i, path := range config.GetConfigPaths() {
		state := "missing"
		if fileExists(path) {
			state = "found"
		}
		fmt.Fprintf(w, "  %d. %-40s %s\n", i+1, path, state)
	}

	if current, ok := config.FindConfigFile(); ok {
		fmt.Fprintf(w, "\n%sUsing %s\n", emoji.Prefix("target"), current)
	} else {
		fmt.Fprintln(w, "\nNo config file found, using defaults")
	}
	fmt.Fprintf(w, "Environment variables prefixed with %s override file settings\n", config.EnvPrefix)
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
