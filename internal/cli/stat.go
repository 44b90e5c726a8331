package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yildizm/mlstudio/internal/emoji"
	"github.com/yildizm/mlstudio/internal/pipeline"
)

func newStatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stat [dataset] [column-a] [column-b]",
		Short: "Run a statistical test between two columns",
		Long: `Upload a dataset and let the service pick and run the statistical test
that fits the two columns (for example a t-test, ANOVA or chi-square).

Examples:
  mlstudio stat iris.csv sepal_length species
  mlstudio stat iris.csv sepal_length petal_length -o json`,
		Args: cobra.ExactArgs(3),
		RunE: runStat,
	}

	return cmd
}

func runStat(cmd *cobra.Command, args []string) error {
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
	if err := s.ctrl.RunStatTest(ctx, args[1], args[2]); err != nil {
		return err
	}

	result := s.ctrl.Results().StatTest
	out := cmd.OutOrStdout()

	switch cfg.Output.DefaultFormat {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	default:
		fmt.Fprint(out, formatStatTest(result))
	}
	return nil
}

func formatStatTest(r *pipeline.StatTestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sStatistical Test: %s vs %s\n", emoji.Prefix("stat_test"), r.Columns[0], r.Columns[1])
	for _, e := range r.Values {
		fmt.Fprintf(&b, "  %-20s %v\n", e.Key, e.Value)
	}
	return b.String()
}
