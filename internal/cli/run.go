package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/mlstudio/internal/config"
	"github.com/yildizm/mlstudio/internal/emoji"
	"github.com/yildizm/mlstudio/internal/pipeline"
	"github.com/yildizm/mlstudio/internal/report"
)

var (
	runTarget     string
	runSteps      []string
	runOutputFile string
	runModelPath  string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dataset]",
		Short: "Run the pipeline on a dataset and print a report",
		Long: `Upload a CSV or XLSX dataset, run the configured pipeline steps in order
and print a report of every result.

Steps are eda, eda-extended, feature-stats, train, explain and download.
The run stops at the first failed step; the report still shows everything
that succeeded before it.

Examples:
  mlstudio run iris.csv --target species
  mlstudio run sales.xlsx --target revenue --steps eda,train -o markdown
  mlstudio run iris.csv --target species -o html --output-file report.html`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}

	cmd.Flags().StringVarP(&runTarget, "target", "t", "", "target column for training")
	cmd.Flags().StringSliceVarP(&runSteps, "steps", "s", nil, "pipeline steps to run after the upload")
	cmd.Flags().StringVar(&runOutputFile, "output-file", "", "save the report to a file instead of stdout")
	cmd.Flags().StringVar(&runModelPath, "model-path", "", "where the download step writes the model")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()
	applyRunFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := newSession(cfg, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	runErr := executePipeline(cmd.Context(), s, args[0])

	if err := writeReport(cmd, s.ctrl, cfg, runOutputFile); err != nil {
		return err
	}
	return runErr
}

// applyRunFlags overrides the pipeline section with explicitly set flags
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("target") {
		cfg.Pipeline.Target = runTarget
	}
	if cmd.Flags().Changed("steps") {
		cfg.Pipeline.Steps = runSteps
	}
	if cmd.Flags().Changed("model-path") {
		cfg.Pipeline.ModelPath = runModelPath
	}
}

// executePipeline uploads dataset and runs the configured steps, stopping at the first failure
func executePipeline(ctx context.Context, s *session, dataset string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := uploadDataset(ctx, s, dataset); err != nil {
		return err
	}
	if target := s.cfg.Pipeline.Target; target != "" {
		if err := s.ctrl.SelectTarget(target); err != nil {
			return err
		}
	}

	for _, step := range s.cfg.Pipeline.Steps {
		if err := runStep(ctx, s, step); err != nil {
			return fmt.Errorf("step %s failed: %w", step, err)
		}
	}
	return nil
}

func uploadDataset(ctx context.Context, s *session, dataset string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateFilePath(dataset); err != nil {
		return err
	}
	if err := s.ctrl.UploadFile(ctx, dataset); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}

func runStep(ctx context.Context, s *session, step string) error {
	ctrl := s.ctrl
	switch step {
	case config.StepEDA:
		return ctrl.RunBasicEDA(ctx)
	case config.StepExtendedEDA:
		return ctrl.RunExtendedEDA(ctx)
	case config.StepFeatureStats:
		return ctrl.RunFeatureStats(ctx)
	case config.StepTrain:
		return ctrl.Train(ctx, ctrl.Target())
	case config.StepExplain:
		return ctrl.Explain(ctx)
	case config.StepDownload:
		_, err := downloadModel(ctx, ctrl, s.cfg.Pipeline.ModelPath)
		return err
	default:
		return fmt.Errorf("unknown step: %s", step)
	}
}

// downloadModel writes the trained model to path
func downloadModel(ctx context.Context, ctrl *pipeline.Controller, path string) (int64, error) {
	if err := validateOutputFilePath(path); err != nil {
		return 0, fmt.Errorf("invalid model path: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return 0, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// #nosec G304 - path comes from flags or configuration
	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("failed to create model file: %w", err)
	}

	n, err := ctrl.DownloadModel(ctx, file)
	closeErr := file.Close()
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	if closeErr != nil {
		return n, fmt.Errorf("failed to close model file: %w", closeErr)
	}
	return n, nil
}

// writeReport renders the controller state in the configured format
func writeReport(cmd *cobra.Command, ctrl *pipeline.Controller, cfg *config.Config, outputFile string) error {
	rep := report.Build(ctrl.Snapshot(), time.Now())

	color := outputFile == "" && useColor(cfg, cmd.OutOrStdout())
	formatter, err := report.New(cfg.Output.DefaultFormat, color, !emoji.IsEmojiDisabled())
	if err != nil {
		return err
	}

	output, err := formatter.Format(rep)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	return handleOutputDestination(cmd.OutOrStdout(), output, outputFile)
}

// handleOutputDestination writes output to file or w
func handleOutputDestination(w io.Writer, output []byte, outputFile string) error {
	if outputFile == "" {
		_, err := w.Write(output)
		return err
	}

	if err := validateOutputFilePath(outputFile); err != nil {
		return fmt.Errorf("invalid output file path: %w", err)
	}
	if err := writeOutputBytesToFile(output, outputFile); err != nil {
		return fmt.Errorf("failed to write output to file: %w", err)
	}
	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Output saved to: %s\n", outputFile)
	}
	return nil
}

func validateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", cleanPath)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", cleanPath)
	}

	return nil
}

func validateOutputFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}
	return nil
}

// writeOutputBytesToFile writes output to a file with proper error handling
func writeOutputBytesToFile(output []byte, filePath string) error {
	cleanPath := filepath.Clean(filePath)

	// #nosec G304 - path is validated by validateOutputFilePath
	file, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", closeErr)
		}
	}()

	if _, err := file.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	return nil
}
