package report

import (
	"fmt"
	"strings"

	"github.com/yildizm/mlstudio/internal/views"
)

// markdownFormatter formats a report as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(r *Report) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# ML Pipeline Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))

	f.writeDataset(&b, r)

	if len(r.Overview) > 0 {
		b.WriteString("## Overview\n\n")
		writeCardTable(&b, r.Overview)
	}
	if len(r.Missing) > 0 {
		f.writeMissing(&b, r)
	}
	if r.Heatmap != nil {
		f.writeHeatmap(&b, r.Heatmap)
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

func (f *markdownFormatter) writeDataset(b *strings.Builder, r *Report) {
	b.WriteString("## Dataset\n\n")
	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")
	fmt.Fprintf(b, "| File | %s |\n", escapeCell(orDash(r.Dataset)))
	fmt.Fprintf(b, "| Rows | %s |\n", formatNumber(r.Rows))
	fmt.Fprintf(b, "| Columns | %s |\n", escapeCell(strings.Join(r.Columns, ", ")))
	fmt.Fprintf(b, "| Target | %s |\n", escapeCell(orDash(r.Target)))
	fmt.Fprintf(b, "| Session | `%s` |\n\n", r.SessionID)

	for _, s := range r.Steps {
		box := " "
		if s.State == views.StepDone {
			box = "x"
		}
		suffix := ""
		if s.State == views.StepActive {
			suffix = " (current)"
		}
		fmt.Fprintf(b, "- [%s] %s%s\n", box, s.Name, suffix)
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeMissing(b *strings.Builder, r *Report) {
	b.WriteString("## Missing Values\n\n")
	b.WriteString("| Column | Missing |\n")
	b.WriteString("|--------|---------|\n")
	for _, e := range r.Missing {
		fmt.Fprintf(b, "| %s | %d |\n", escapeCell(e.Key), e.Value)
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeHeatmap(b *strings.Builder, h *views.Heatmap) {
	b.WriteString("## Correlation Heatmap\n\n")

	b.WriteString("| |")
	for _, c := range h.Columns {
		fmt.Fprintf(b, " %s |", escapeCell(c))
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(h.Columns)))
	b.WriteString("\n")

	for i, row := range h.Cells {
		fmt.Fprintf(b, "| **%s** |", escapeCell(h.Columns[i]))
		for _, cell := range row {
			if cell.Bright {
				fmt.Fprintf(b, " **%s** |", cell.Label)
			} else {
				fmt.Fprintf(b, " %s |", cell.Label)
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeStatTest(b *strings.Builder, r *Report) {
	t := r.StatTest
	fmt.Fprintf(b, "## Statistical Test: %s vs %s\n\n", escapeCell(t.Columns[0]), escapeCell(t.Columns[1]))
	b.WriteString("| Key | Value |\n")
	b.WriteString("|-----|-------|\n")
	for _, e := range t.Values {
		fmt.Fprintf(b, "| %s | %s |\n", escapeCell(e.Key), escapeCell(fmt.Sprint(e.Value)))
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeModel(b *strings.Builder, m *ModelSection) {
	fmt.Fprintf(b, "## Best Model: %s\n\n", escapeCell(m.BestModel))
	fmt.Fprintf(b, "Problem type: %s\n\n", m.ProblemType)
	writeCardTable(b, m.Metrics)

	fmt.Fprintf(b, "### Model Comparison (%s)\n\n", m.Ranking.AxisLabel)
	b.WriteString("| Model | Score | Relative |\n")
	b.WriteString("|-------|-------|----------|\n")
	for _, e := range m.Ranking.Entries {
		name := escapeCell(e.Name)
		if e.Winner {
			name = "**" + name + "** ★"
		}
		fmt.Fprintf(b, "| %s | %s | %.1f%% |\n", name, views.ScoreLabel(e.Score), e.Width)
	}
	b.WriteString("\n")

	if cm := m.Confusion; cm != nil {
		b.WriteString("### Confusion Matrix\n\n")
		b.WriteString("| Actual \\ Predicted |")
		for _, l := range cm.Labels {
			fmt.Fprintf(b, " %s |", l)
		}
		b.WriteString("\n|---|")
		b.WriteString(strings.Repeat("---|", len(cm.Labels)))
		b.WriteString("\n")
		for i, row := range cm.Cells {
			fmt.Fprintf(b, "| %s |", cm.Labels[i])
			for _, c := range row {
				if c.Class == views.CellCorrect {
					fmt.Fprintf(b, " **%d** |", c.Count)
				} else {
					fmt.Fprintf(b, " %d |", c.Count)
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.AUC != "" {
		fmt.Fprintf(b, "### ROC Curve\n\n%s\n\n", m.AUC)
		b.WriteString("| FPR | TPR |\n")
		b.WriteString("|-----|-----|\n")
		for _, p := range m.ROC {
			fmt.Fprintf(b, "| %.3f | %.3f |\n", p.FPR, p.TPR)
		}
		b.WriteString("\n")
	}
}

func (f *markdownFormatter) writeFeatures(b *strings.Builder, features []views.FeatureImportance) {
	b.WriteString("## Feature Importance (SHAP)\n\n")
	b.WriteString("| Rank | Feature | Mean abs SHAP |\n")
	b.WriteString("|------|---------|---------------|\n")
	for i, fi := range features {
		fmt.Fprintf(b, "| %d | %s | %s |\n", i+1, escapeCell(fi.Feature), views.ScoreLabel(fi.Importance))
	}
	b.WriteString("\n")
}

func writeCardTable(b *strings.Builder, cards []Card) {
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	for _, c := range cards {
		fmt.Fprintf(b, "| %s | %s |\n", c.Title, c.Value)
	}
	b.WriteString("\n")
}

// escapeCell keeps user-provided names from breaking table rows
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func orDash(s string) string {
	if s == "" {
		return views.Missing
	}
	return s
}
