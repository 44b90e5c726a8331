package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yildizm/mlstudio/internal/automl"
	"github.com/yildizm/mlstudio/internal/emoji"
)

var plotOut string

func newPlotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [dataset] [kind] [column] [column-b]",
		Short: "Render a chart of one or two columns to a PNG file",
		Long: `Upload a dataset and let the service render a chart.

Kinds are distribution and box for one column, and scatter for two.

Examples:
  mlstudio plot iris.csv distribution sepal_length
  mlstudio plot iris.csv scatter sepal_length petal_length --out scatter.png`,
		Args: cobra.RangeArgs(3, 4),
		RunE: runPlot,
	}

	cmd.Flags().StringVar(&plotOut, "out", "", "PNG file to write (default <kind>_<column>.png)")

	return cmd
}

func runPlot(cmd *cobra.Command, args []string) error {
	kind := automl.PlotKind(args[1])
	if !kind.Valid() {
		return fmt.Errorf("unknown plot kind %q (use distribution, box or scatter)", args[1])
	}
	colA, colB := args[2], ""
	if len(args) == 4 {
		colB = args[3]
	}
	if kind == automl.PlotScatter && colB == "" {
		return fmt.Errorf("scatter plots need two columns")
	}

	out := plotOut
	if out == "" {
		out = fmt.Sprintf("%s_%s.png", kind, colA)
	}
	if err := validateOutputFilePath(out); err != nil {
		return fmt.Errorf("invalid output file path: %w", err)
	}

	cfg := GetGlobalConfig()
	s, err := newSession(cfg, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := uploadDataset(ctx, s, args[0]); err != nil {
		return err
	}
	if err := s.ctrl.RenderPlot(ctx, kind, colA, colB); err != nil {
		return err
	}

	plot := s.ctrl.Results().Plot
	if err := writeOutputBytesToFile(plot.Image, out); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%sPlot saved to %s (%d bytes)\n", emoji.Prefix("plot"), out, len(plot.Image))
	return nil
}
