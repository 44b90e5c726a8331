package report

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/mlstudio/internal/views"
)

// terminalFormatter formats a report for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a terminal formatter
func NewTerminal(color, emoji bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = emoji
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(r *Report) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b)
	f.writeDataset(&b, r)

	if len(r.Overview) > 0 {
		f.writeCards(&b, "statistics", "📊", "Overview", r.Overview)
	}
	if r.Heatmap != nil {
		f.writeStrongCorrelations(&b, r.Heatmap)
	}
	if r.StatTest != nil {
		f.writeStatTest(&b, r)
	}
	if r.Model != nil {
		f.writeModel(&b, r.Model)
	}
	if len(r.Features) > 0 {
		f.writeFeatures(&b, r.Features)
	}

	return []byte(b.String()), nil
}

func (f *terminalFormatter) writeHeader(b *strings.Builder) {
	header := "ML Pipeline Report"
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

func (f *terminalFormatter) symbol(key, fallback string) string {
	if !f.opts.Emoji {
		return "*"
	}
	if s := termfmt.GetEmoji(key, f.opts); s != "" {
		return s
	}
	return fallback
}

func (f *terminalFormatter) writeDataset(b *strings.Builder, r *Report) {
	b.WriteString(f.symbol("summary", "📝") + " Dataset\n")

	dataset := r.Dataset
	if dataset == "" {
		dataset = "none"
	}
	target := r.Target
	if target == "" {
		target = "not selected"
	}

	steps := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = stepMarker(s.State) + " " + s.Name
	}

	items := []termfmt.TreeItem{
		{Label: "File", Value: dataset},
		{Label: "Rows", Value: formatNumber(r.Rows)},
		{Label: "Columns", Value: fmt.Sprintf("%d", len(r.Columns))},
		{Label: "Target", Value: target},
		{Label: "Progress", Value: strings.Join(steps, "  "), Last: true},
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeCards(b *strings.Builder, key, fallback, title string, cards []Card) {
	fmt.Fprintf(b, "%s %s\n", f.symbol(key, fallback), title)

	items := make([]termfmt.TreeItem, len(cards))
	for i, c := range cards {
		items[i] = termfmt.TreeItem{Label: c.Title, Value: c.Value, Last: i == len(cards)-1}
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// writeStrongCorrelations lists the off-diagonal pairs drawn with the bright label
func (f *terminalFormatter) writeStrongCorrelations(b *strings.Builder, h *views.Heatmap) {
	var items []termfmt.TreeItem
	for i, row := range h.Cells {
		for j := i + 1; j < len(row); j++ {
			cell := row[j]
			if !cell.Bright {
				continue
			}
			items = append(items, termfmt.TreeItem{
				Label: fmt.Sprintf("%s ~ %s", cell.Row, cell.Col),
				Value: cell.Label,
			})
		}
	}

	fmt.Fprintf(b, "%s Strong Correlations\n", f.symbol("insights", "🔍"))
	if len(items) == 0 {
		b.WriteString("└─ none above 0.5\n\n")
		return
	}
	items[len(items)-1].Last = true
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeStatTest(b *strings.Builder, r *Report) {
	t := r.StatTest
	fmt.Fprintf(b, "%s Statistical Test (%s vs %s)\n", f.symbol("statistics", "📊"), t.Columns[0], t.Columns[1])

	items := make([]termfmt.TreeItem, len(t.Values))
	for i, e := range t.Values {
		items[i] = termfmt.TreeItem{Label: e.Key, Value: fmt.Sprint(e.Value), Last: i == len(t.Values)-1}
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeModel(b *strings.Builder, m *ModelSection) {
	fmt.Fprintf(b, "%s Model Comparison (%s)\n", f.symbol("target", "🎯"), m.Ranking.AxisLabel)

	items := make([]termfmt.TreeItem, 0, len(m.Ranking.Entries))
	for i, e := range m.Ranking.Entries {
		label := e.Name
		if e.Winner {
			label += " ★"
		}
		bar := termfmt.CreateConfidenceBar(e.Width/100, f.opts)
		items = append(items, termfmt.TreeItem{
			Label: label,
			Value: bar + " " + views.ScoreLabel(e.Score),
			Last:  i == len(m.Ranking.Entries)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")

	f.writeCards(b, "insights", "🔍", fmt.Sprintf("Best Model: %s (%s)", m.BestModel, m.ProblemType), m.Metrics)

	if m.Confusion != nil {
		f.writeConfusion(b, m.Confusion)
	}
	if m.AUC != "" {
		fmt.Fprintf(b, "ROC %s over %d points\n\n", m.AUC, len(m.ROC))
	}
}

func (f *terminalFormatter) writeConfusion(b *strings.Builder, cm *views.ConfusionMatrix) {
	b.WriteString("Confusion Matrix (rows actual, columns predicted)\n")

	width := 4
	for _, row := range cm.Cells {
		for _, c := range row {
			width = max(width, len(fmt.Sprint(c.Count))+2)
		}
	}

	fmt.Fprintf(b, "%*s", width, "")
	for _, l := range cm.Labels {
		fmt.Fprintf(b, "%*s", width, l)
	}
	b.WriteString("\n")
	for i, row := range cm.Cells {
		fmt.Fprintf(b, "%*s", width, cm.Labels[i])
		for _, c := range row {
			mark := fmt.Sprint(c.Count)
			if c.Class == views.CellCorrect {
				mark = "[" + mark + "]"
			}
			fmt.Fprintf(b, "%*s", width, mark)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (f *terminalFormatter) writeFeatures(b *strings.Builder, features []views.FeatureImportance) {
	fmt.Fprintf(b, "%s Feature Importance (SHAP)\n", f.symbol("recommendations", "💡"))

	top := features[0].Importance
	items := make([]termfmt.TreeItem, len(features))
	for i, fi := range features {
		ratio := 0.0
		if top > 0 {
			ratio = fi.Importance / top
		}
		items[i] = termfmt.TreeItem{
			Label: fi.Feature,
			Value: termfmt.CreateConfidenceBar(ratio, f.opts) + " " + views.ScoreLabel(fi.Importance),
			Last:  i == len(features)-1,
		}
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
}

func stepMarker(s views.StepState) string {
	switch s {
	case views.StepDone:
		return "✓"
	case views.StepActive:
		return "●"
	default:
		return "○"
	}
}
