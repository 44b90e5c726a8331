package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yildizm/mlstudio/internal/emoji"
)

var (
	downloadTarget string
	downloadOut    string
)

func newDownloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [dataset]",
		Short: "Train a model on a dataset and save the best one",
		Long: `Upload a dataset, train candidate models against the target column and
download the serialized best model.

Examples:
  mlstudio download iris.csv --target species
  mlstudio download iris.csv --target species --out models/iris.pkl`,
		Args: cobra.ExactArgs(1),
		RunE: runDownload,
	}

	cmd.Flags().StringVarP(&downloadTarget, "target", "t", "", "target column for training")
	cmd.Flags().StringVar(&downloadOut, "out", "", "model file to write (default pipeline.model_path)")

	return cmd
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()
	if cmd.Flags().Changed("target") {
		cfg.Pipeline.Target = downloadTarget
	}
	if cmd.Flags().Changed("out") {
		cfg.Pipeline.ModelPath = downloadOut
	}
	if cfg.Pipeline.Target == "" {
		return fmt.Errorf("a target column is required (use --target or pipeline.target)")
	}

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
	if err := s.ctrl.SelectTarget(cfg.Pipeline.Target); err != nil {
		return err
	}
	if err := s.ctrl.Train(ctx, s.ctrl.Target()); err != nil {
		return err
	}

	n, err := downloadModel(ctx, s.ctrl, cfg.Pipeline.ModelPath)
	if err != nil {
		return err
	}

	best := s.ctrl.Results().Model.Result.BestModel
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s saved to %s (%d bytes)\n", emoji.Prefix("download"), best, cfg.Pipeline.ModelPath, n)
	return nil
}
