package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yildizm/mlstudio/internal/emoji"
)

var watchTarget string

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dataset]",
		Short: "Re-run the pipeline whenever a dataset changes",
		Long: `Run the pipeline once, then watch the dataset and run it again every
time the file is saved. Bursts of writes are coalesced using
pipeline.watch_debounce. Press Ctrl+C to stop watching.

Examples:
  mlstudio watch iris.csv --target species
  mlstudio watch --steps eda,train sales.csv -t revenue`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().StringVarP(&watchTarget, "target", "t", "", "target column for training")
	cmd.Flags().StringSliceVarP(&runSteps, "steps", "s", nil, "pipeline steps to run after each upload")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	filename := args[0]
	cfg := GetGlobalConfig()
	if cmd.Flags().Changed("target") {
		cfg.Pipeline.Target = watchTarget
	}
	if cmd.Flags().Changed("steps") {
		cfg.Pipeline.Steps = runSteps
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := validateWatchFilePath(filename); err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	watcher, err := createWatcher(filename)
	if err != nil {
		return err
	}
	defer cleanupWatcher(watcher)

	s, err := newSession(cfg, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rerun := func() {
		runErr := executePipeline(ctx, s, filename)
		if err := writeReport(cmd, s.ctrl, cfg, ""); err != nil {
			s.log.Warn("failed to write report: %v", err)
		}
		if runErr != nil && ctx.Err() == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s%v\n", emoji.Prefix("error"), runErr)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%sWatching %s for changes (Ctrl+C to stop)\n", emoji.Prefix("watch"), filename)
	}

	rerun()
	return runWatchLoop(ctx, watcher.Events, watcher.Errors, filename, cfg.Pipeline.WatchDebounce, rerun)
}

// runWatchLoop calls rerun once per burst of changes to filename until ctx is done
func runWatchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	filename string, debounce time.Duration, rerun func()) error {
	target := filepath.Clean(filename)

	// a stopped timer whose channel is nil until the first change
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
			}
			return nil

		case event, ok := <-events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !isDatasetChange(event, target) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			rerun()

		case err, ok := <-errs:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			}
		}
	}
}

// isDatasetChange reports whether event rewrote the watched file. Editors often
// save by writing a temp file and renaming it over the original.
func isDatasetChange(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// cleanupWatcher safely closes watcher with error logging
func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
	}
}

// createWatcher watches the directory holding filename so renames onto it are seen
func createWatcher(filename string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(filepath.Clean(filename))); err != nil {
		cleanupWatcher(watcher)
		return nil, fmt.Errorf("failed to watch file: %w", err)
	}

	return watcher, nil
}

// validateWatchFilePath validates that a file path is safe to watch
func validateWatchFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty file path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot watch directory, must be a file")
	}

	return nil
}
