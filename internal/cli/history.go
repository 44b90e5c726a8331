package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/yildizm/mlstudio/internal/config"
	"github.com/yildizm/mlstudio/internal/emoji"
	"github.com/yildizm/mlstudio/internal/history"
)

var (
	historyLimit    int
	historySessions bool
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous pipeline runs",
		Long: `Show the actions recorded by earlier runs, newest first.

Every upload, analysis, training and download is stored in a local SQLite
database (history.path) while history is enabled.

Examples:
  mlstudio history
  mlstudio history --limit 50 -o json
  mlstudio history --sessions`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "number of runs to show (default history.limit)")
	cmd.Flags().BoolVar(&historySessions, "sessions", false, "summarize by session instead of listing runs")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()
	if !cfg.History.Enabled {
		return fmt.Errorf("run history is disabled (set history.enabled: true)")
	}

	store, err := history.Open(config.ExpandPath(cfg.History.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var data interface{}
	if historySessions {
		sessions, err := store.Sessions(ctx)
		if err != nil {
			return err
		}
		data = sessions
	} else {
		limit := cfg.History.Limit
		if cmd.Flags().Changed("limit") {
			limit = historyLimit
		}
		runs, err := store.Recent(ctx, limit)
		if err != nil {
			return err
		}
		data = runs
	}

	return printHistory(cmd.OutOrStdout(), cfg, data)
}

func printHistory(w io.Writer, cfg *config.Config, data interface{}) error {
	if cfg.Output.DefaultFormat == "json" {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}

	layout := cfg.Output.TimestampFormat
	var t *table.Table
	count := 0

	switch v := data.(type) {
	case []history.Run:
		t = newHistoryTable(w, cfg, "Started", "Session", "Action", "Status", "Duration", "Message")
		for _, r := range v {
			t.Row(r.StartedAt.Format(layout), shortID(r.SessionID), string(r.Action), string(r.Status),
				r.Duration.Round(time.Millisecond).String(), r.Message)
		}
		count = len(v)
	case []history.Session:
		t = newHistoryTable(w, cfg, "Last Run", "Session", "Dataset", "Runs", "Failures")
		for _, s := range v {
			t.Row(s.LastRunAt.Format(layout), shortID(s.SessionID), s.Dataset,
				strconv.Itoa(s.Runs), strconv.Itoa(s.Failures))
		}
		count = len(v)
	default:
		return fmt.Errorf("unsupported history data %T", data)
	}

	if count == 0 {
		_, err := fmt.Fprintf(w, "%sNo runs recorded yet\n", emoji.Prefix("history"))
		return err
	}
	_, err := fmt.Fprintf(w, "%sRun History\n%s\n", emoji.Prefix("history"), t.Render())
	return err
}

func newHistoryTable(w io.Writer, cfg *config.Config, headers ...string) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	if useColor(cfg, w) {
		header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	}
	return t
}

// shortID keeps the first block of a UUID
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
