package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/yildizm/mlstudio/internal/ui"
)

var tuiTarget string

func newTUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [dataset]",
		Short: "Step through the pipeline in an interactive dashboard",
		Long: `Open the interactive dashboard. When a dataset is given it is uploaded
immediately; press u to upload it again after editing the file.

Press ? inside the dashboard for the key bindings.

Examples:
  mlstudio tui iris.csv --target species
  mlstudio tui --endpoint http://automl:8000 sales.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTUI,
	}

	cmd.Flags().StringVarP(&tuiTarget, "target", "t", "", "target column selected after the upload")

	return cmd
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()
	if cmd.Flags().Changed("target") {
		cfg.Pipeline.Target = tuiTarget
	}

	opts := ui.Options{Target: cfg.Pipeline.Target}
	if len(args) == 1 {
		if err := validateFilePath(args[0]); err != nil {
			return err
		}
		opts.Dataset = args[0]
	}

	// the dashboard owns the terminal; logs would corrupt it
	s, err := newSession(cfg, io.Discard, false)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ui.Run(ctx, s.ctrl, opts)
}
