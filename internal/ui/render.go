package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/mlstudio/internal/automl"
	"github.com/yildizm/mlstudio/internal/emoji"
	"github.com/yildizm/mlstudio/internal/pipeline"
	"github.com/yildizm/mlstudio/internal/report"
	"github.com/yildizm/mlstudio/internal/views"
)

// viewTitles are the tab labels, in pipeline.Views order
var viewTitles = map[pipeline.View]string{
	pipeline.ViewHome:         "Home",
	pipeline.ViewEDA:          "EDA",
	pipeline.ViewExtendedEDA:  "Correlations",
	pipeline.ViewFeatureStats: "Features",
	pipeline.ViewStatTest:     "Stat Test",
	pipeline.ViewPlot:         "Plot",
	pipeline.ViewModel:        "Model",
	pipeline.ViewExplain:      "SHAP",
	pipeline.ViewPreview:      "Preview",
}

const barCells = 30

// renderer draws the result panes of a snapshot
type renderer struct {
	styles *Styles
	mode   Mode
}

func (r *renderer) tabs(active pipeline.View) string {
	parts := make([]string, 0, len(pipeline.Views))
	for i, v := range pipeline.Views {
		label := fmt.Sprintf("%d %s", i+1, viewTitles[v])
		if v == active {
			parts = append(parts, r.styles.TabOn.Render(label))
		} else {
			parts = append(parts, r.styles.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (r *renderer) stepper(progress pipeline.Stage) string {
	states := views.StepStates(int(progress), len(pipeline.Stages))
	parts := make([]string, 0, len(states))
	for i, stage := range pipeline.Stages {
		switch states[i] {
		case views.StepDone:
			parts = append(parts, r.styles.Success.Render("✓ "+stage.String()))
		case views.StepActive:
			parts = append(parts, r.styles.Header.Render("● "+stage.String()))
		default:
			parts = append(parts, r.styles.Muted.Render("○ "+stage.String()))
		}
	}
	return strings.Join(parts, r.styles.Muted.Render(" → "))
}

// content renders the body of the active view
func (r *renderer) content(snap pipeline.Snapshot) string {
	rep := report.Build(snap, time.Now())

	switch snap.View {
	case pipeline.ViewEDA:
		return r.eda(rep)
	case pipeline.ViewExtendedEDA:
		return r.correlations(rep, snap.Results.ExtendedEDA)
	case pipeline.ViewFeatureStats:
		return r.featureStats(snap.Results.FeatureStats)
	case pipeline.ViewStatTest:
		return r.statTest(snap.Results.StatTest)
	case pipeline.ViewPlot:
		return r.plot(snap.Results.Plot)
	case pipeline.ViewModel:
		return r.model(rep.Model)
	case pipeline.ViewExplain:
		return r.features(rep.Features)
	case pipeline.ViewPreview:
		return r.preview(snap.Results.Preview)
	default:
		return r.home(snap)
	}
}

func (r *renderer) empty(what string) string {
	return r.styles.Muted.Render(what)
}

func (r *renderer) home(snap pipeline.Snapshot) string {
	var b strings.Builder
	b.WriteString(r.styles.Header.Render(emoji.Prefix("dataset")+"Dataset") + "\n\n")

	if snap.Schema.Empty() {
		b.WriteString(r.empty("No dataset loaded. Press u to upload."))
		return b.String()
	}

	fmt.Fprintf(&b, "File:    %s\n", snap.Dataset)
	fmt.Fprintf(&b, "Rows:    %d\n", snap.Schema.Rows)
	fmt.Fprintf(&b, "Columns: %d\n\n", len(snap.Schema.Columns))

	for _, col := range snap.Schema.Columns {
		if col == snap.Target {
			b.WriteString(r.styles.Selected.Render(emoji.Prefix("target")+col) + "\n")
		} else {
			b.WriteString("  " + col + "\n")
		}
	}
	return b.String()
}

func (r *renderer) cards(cards []report.Card) string {
	boxes := make([]string, 0, len(cards))
	for _, c := range cards {
		box := lipgloss.JoinVertical(lipgloss.Left,
			r.styles.Muted.Render(c.Title),
			r.styles.Header.Render(c.Value),
			r.bar(c.Bar, 14),
		)
		boxes = append(boxes, r.styles.Panel.Render(box))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

// bar draws a percentage as a block bar of the given width
func (r *renderer) bar(percent float64, cells int) string {
	n := int(math.Round(percent / 100 * float64(cells)))
	n = max(0, min(cells, n))
	return r.styles.Bar.Render(strings.Repeat("█", n)) + r.styles.Muted.Render(strings.Repeat("░", cells-n))
}

func (r *renderer) eda(rep *report.Report) string {
	if len(rep.Overview) == 0 {
		return r.empty("Run EDA with e.")
	}

	var b strings.Builder
	b.WriteString(r.styles.Header.Render(emoji.Prefix("statistics")+"Overview") + "\n")
	b.WriteString(r.cards(rep.Overview) + "\n\n")

	b.WriteString(r.styles.Header.Render("Missing Values") + "\n")
	for _, e := range rep.Missing {
		count := fmt.Sprintf("%d", e.Value)
		if e.Value > 0 {
			count = r.styles.Warning.Render(count)
		}
		fmt.Fprintf(&b, "  %-24s %s\n", e.Key, count)
	}
	return b.String()
}

func (r *renderer) correlations(rep *report.Report, full *automl.ExtendedEDA) string {
	if full == nil {
		return r.empty("Run the correlation analysis with x.")
	}
	h := rep.Heatmap
	if h == nil || len(h.Columns) == 0 {
		return r.empty("No numeric columns to correlate.")
	}

	var b strings.Builder
	b.WriteString(r.styles.Header.Render(emoji.Prefix("correlation")+"Correlation Heatmap") + "\n\n")

	const cellWidth = 7
	b.WriteString(strings.Repeat(" ", 12))
	for _, col := range h.Columns {
		b.WriteString(lipgloss.NewStyle().Width(cellWidth).Render(truncate(col, cellWidth-1)))
	}
	b.WriteString("\n")

	for i, row := range h.Cells {
		b.WriteString(lipgloss.NewStyle().Width(12).Render(truncate(h.Columns[i], 11)))
		for _, cell := range row {
			fg := r.styles.Theme.Dim
			if cell.Bright {
				fg = r.styles.Theme.Bright
			}
			style := lipgloss.NewStyle().
				Width(cellWidth).
				Align(lipgloss.Center).
				Foreground(fg).
				Background(lipgloss.Color(r.blend(cell.Color)))
			b.WriteString(style.Render(cell.Label))
		}
		b.WriteString("\n")
	}

	if len(full.Histograms) > 0 {
		b.WriteString("\n" + r.styles.Header.Render("Distributions") + "\n")
		for _, e := range full.Histograms {
			total := 0
			for _, c := range e.Value.Counts {
				total += c
			}
			fmt.Fprintf(&b, "  %-24s %d bins, %d values\n", e.Key, len(e.Value.Counts), total)
		}
	}
	return b.String()
}

// blend flattens a translucent heatmap color onto the mode's background
func (r *renderer) blend(c views.RGBA) string {
	base := [3]float64{17, 24, 39}
	if r.mode == ModeLight {
		base = [3]float64{255, 255, 255}
	}
	mix := func(v uint8, bg float64) uint8 {
		return uint8(math.Round(float64(v)*c.A + bg*(1-c.A)))
	}
	return views.RGBA{R: mix(c.R, base[0]), G: mix(c.G, base[1]), B: mix(c.B, base[2]), A: 1}.Hex()
}

func (r *renderer) featureStats(fs *automl.FeatureStats) string {
	if fs == nil {
		return r.empty("Run feature analysis with f.")
	}

	unique := make(map[string]int, len(fs.Unique))
	for _, e := range fs.Unique {
		unique[e.Key] = e.Value
	}

	var b strings.Builder
	b.WriteString(r.styles.Header.Render(emoji.Prefix("features")+"Feature Statistics") + "\n\n")
	fmt.Fprintf(&b, "  %-24s %10s %10s\n", "Column", "Missing", "Unique")
	for _, e := range fs.Missing {
		fmt.Fprintf(&b, "  %-24s %10d %10d\n", truncate(e.Key, 24), e.Value, unique[e.Key])
	}
	return b.String()
}

func (r *renderer) statTest(st *pipeline.StatTestResult) string {
	if st == nil {
		return r.empty("Pick two columns with tab and c, then press a.")
	}

	var b strings.Builder
	b.WriteString(r.styles.Header.Render(emoji.Prefix("stat_test")+"Statistical Test") + "\n\n")
	fmt.Fprintf(&b, "Columns: %s vs %s\n\n", st.Columns[0], st.Columns[1])
	for _, e := range st.Values {
		fmt.Fprintf(&b, "  %-20s %v\n", e.Key, e.Value)
	}
	return b.String()
}

func (r *renderer) plot(p *pipeline.PlotResult) string {
	if p == nil {
		return r.empty("Render a distribution plot of the selected column with g.")
	}

	var b strings.Builder
	b.WriteString(r.styles.Header.Render(emoji.Prefix("plot")+"Plot") + "\n\n")
	fmt.Fprintf(&b, "Kind:    %s\n", p.Kind)
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(p.Columns, ", "))
	fmt.Fprintf(&b, "Image:   %d bytes PNG\n\n", len(p.Image))
	b.WriteString(r.styles.Muted.Render("Use `mlstudio plot --out file.png` to save the image."))
	return b.String()
}

func (r *renderer) model(m *report.ModelSection) string {
	if m == nil {
		return r.empty("Select a target with tab, then train with t.")
	}

	var b strings.Builder
	b.WriteString(r.styles.Winner.Render(fmt.Sprintf("%sBest Model: %s", emoji.Prefix("model"), m.BestModel)))
	b.WriteString(r.styles.Muted.Render(fmt.Sprintf("  (%s)", m.ProblemType)) + "\n\n")
	b.WriteString(r.cards(m.Metrics) + "\n\n")

	if m.Ranking != nil {
		b.WriteString(r.styles.Header.Render("Model Comparison ("+m.Ranking.AxisLabel+")") + "\n")
		for _, e := range m.Ranking.Entries {
			name := fmt.Sprintf("%-22s", truncate(e.Name, 22))
			if e.Winner {
				name = r.styles.Winner.Render(name)
			}
			fmt.Fprintf(&b, "  %s %s %s\n", name, r.bar(e.Width, barCells), views.ScoreLabel(e.Score))
		}
	}

	if cm := m.Confusion; cm != nil {
		b.WriteString("\n" + r.styles.Header.Render("Confusion Matrix") + "\n")
		fmt.Fprintf(&b, "  %6s", "")
		for _, l := range cm.Labels {
			fmt.Fprintf(&b, "%7s", l)
		}
		b.WriteString("\n")
		for i, row := range cm.Cells {
			fmt.Fprintf(&b, "  %6s", cm.Labels[i])
			for _, cell := range row {
				text := fmt.Sprintf("%7d", cell.Count)
				if cell.Class == views.CellCorrect {
					text = r.styles.Success.Render(text)
				} else if cell.Count > 0 {
					text = r.styles.Error.Render(text)
				}
				b.WriteString(text)
			}
			b.WriteString("\n")
		}
	}

	if m.AUC != "" {
		b.WriteString("\n" + r.styles.Header.Render("ROC Curve") + "  " + m.AUC + "\n")
	}
	return b.String()
}

func (r *renderer) features(features []views.FeatureImportance) string {
	if len(features) == 0 {
		return r.empty("Explain the trained model with s.")
	}

	var b strings.Builder
	b.WriteString(r.styles.Header.Render(emoji.Prefix("explain")+"Feature Importance (SHAP)") + "\n\n")
	top := features[0].Importance
	for _, f := range features {
		width := 0.0
		if top > 0 {
			width = f.Importance / top * 100
		}
		fmt.Fprintf(&b, "  %-22s %s %.4f\n", truncate(f.Feature, 22), r.bar(width, barCells), f.Importance)
	}
	return b.String()
}

func (r *renderer) preview(p *automl.Preview) string {
	if p == nil {
		return r.empty("Upload a dataset first")
	}

	const colWidth = 14
	var b strings.Builder
	b.WriteString(r.styles.Header.Render(emoji.Prefix("preview")+"Preview") + "\n\n")

	header := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		header[i] = fmt.Sprintf("%-*s", colWidth, truncate(c, colWidth-1))
	}
	b.WriteString(r.styles.Header.Render(strings.Join(header, "")) + "\n")

	for _, row := range p.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%-*s", colWidth, truncate(previewValue(v), colWidth-1))
		}
		b.WriteString(strings.Join(cells, "") + "\n")
	}
	return b.String()
}

func previewValue(v interface{}) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%v", v)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
