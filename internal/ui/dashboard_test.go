package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/mlstudio/internal/automl"
	"github.com/yildizm/mlstudio/internal/automl/automltest"
	"github.com/yildizm/mlstudio/internal/clock"
	"github.com/yildizm/mlstudio/internal/notify"
	"github.com/yildizm/mlstudio/internal/pipeline"
	"github.com/yildizm/mlstudio/internal/views"
)

const irisCSV = `sepal_length,sepal_width,species
5.1,3.5,setosa
4.9,3.0,setosa
6.3,3.3,virginica
5.8,2.7,virginica
`

type harness struct {
	server *automltest.Server
	ctrl   *pipeline.Controller
	model  *Model
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	server := automltest.NewServer()
	t.Cleanup(server.Close)

	cfg := automl.DefaultConfig()
	cfg.BaseURL = server.URL
	client, err := automl.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctrl := pipeline.New(client, notify.NewQueue(fake, 0), pipeline.WithClock(fake))

	model := NewModel(context.Background(), ctrl, opts)
	t.Cleanup(model.Close)
	model.Update(tea.WindowSizeMsg{Width: 140, Height: 50})

	return &harness{server: server, ctrl: ctrl, model: model}
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iris.csv")
	if err := os.WriteFile(path, []byte(irisCSV), 0o600); err != nil {
		t.Fatalf("Failed to write dataset: %v", err)
	}
	return path
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

// press sends a key and runs the command it returns to completion
func (h *harness) press(t *testing.T, key string) {
	t.Helper()
	_, cmd := h.model.Update(keyMsg(key))
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		h.model.Update(msg)
	}
}

func (h *harness) content() string {
	return h.model.renderer().content(h.ctrl.Snapshot())
}

func TestDashboardWorkflow(t *testing.T) {
	h := newHarness(t, Options{Dataset: writeDataset(t), Target: "species"})

	h.press(t, "u")
	if got := h.ctrl.Schema().Columns; len(got) != 3 {
		t.Fatalf("Expected 3 columns after upload, got %v", got)
	}
	if h.ctrl.Target() != "species" {
		t.Errorf("Expected configured target to be selected, got %q", h.ctrl.Target())
	}

	h.press(t, "e")
	if h.ctrl.View() != pipeline.ViewEDA {
		t.Errorf("Expected EDA view, got %s", h.ctrl.View())
	}
	if !strings.Contains(h.content(), "Overview") {
		t.Errorf("Expected overview cards in EDA view, got:\n%s", h.content())
	}

	h.press(t, "t")
	if h.ctrl.View() != pipeline.ViewModel {
		t.Fatalf("Expected model view after training, got %s", h.ctrl.View())
	}
	content := h.content()
	for _, want := range []string{"Best Model: RandomForest", "Model Comparison (ACC)", "Confusion Matrix", "AUC: 0.9532"} {
		if !strings.Contains(content, want) {
			t.Errorf("Expected model view to contain %q, got:\n%s", want, content)
		}
	}

	h.press(t, "s")
	if h.ctrl.Progress() != pipeline.StageExplain {
		t.Errorf("Expected explain stage, got %s", h.ctrl.Progress())
	}
	if !strings.Contains(h.content(), "Feature Importance (SHAP)") {
		t.Errorf("Expected SHAP view, got:\n%s", h.content())
	}

	view := h.model.View()
	if !strings.Contains(view, "SHAP values computed") {
		t.Errorf("Expected latest notification in dashboard, got:\n%s", view)
	}
}

func TestDashboardViewKeys(t *testing.T) {
	h := newHarness(t, Options{})

	for i, v := range pipeline.Views {
		h.press(t, string(rune('1'+i)))
		if h.ctrl.View() != v {
			t.Errorf("Expected key %d to select %s, got %s", i+1, v, h.ctrl.View())
		}
	}
}

func TestDashboardPreviewWithoutDataset(t *testing.T) {
	h := newHarness(t, Options{})

	h.press(t, "p")
	if h.ctrl.View() != pipeline.ViewHome {
		t.Errorf("Expected view to stay home, got %s", h.ctrl.View())
	}
	if !strings.Contains(h.model.View(), "Upload a dataset first") {
		t.Error("Expected the preview refusal to be shown")
	}

	h.press(t, "d")
	if n := h.ctrl.Notifications().Len(); n != 0 {
		t.Errorf("Expected dismissal to clear the notification, got %d left", n)
	}
}

func TestDashboardTargetAndColumnCycle(t *testing.T) {
	h := newHarness(t, Options{Dataset: writeDataset(t)})
	h.press(t, "u")

	h.press(t, "tab")
	if h.ctrl.Target() != "sepal_length" {
		t.Errorf("Expected first column as target, got %q", h.ctrl.Target())
	}
	h.press(t, "tab")
	if h.ctrl.Target() != "sepal_width" {
		t.Errorf("Expected second column as target, got %q", h.ctrl.Target())
	}

	h.press(t, "c")
	if got := h.model.selectedColumn(); got != "sepal_width" {
		t.Errorf("Expected comparison column sepal_width, got %q", got)
	}

	h.press(t, "g")
	plot := h.ctrl.Results().Plot
	if plot == nil || plot.Kind != automl.PlotDistribution || plot.Columns[0] != "sepal_width" {
		t.Errorf("Expected distribution plot of sepal_width, got %+v", plot)
	}
}

func TestDashboardSkipsPendingAction(t *testing.T) {
	h := newHarness(t, Options{Dataset: writeDataset(t)})
	h.press(t, "u")

	h.server.Delay("/eda", 300*time.Millisecond)
	_, first := h.model.Update(keyMsg("e"))
	if first == nil {
		t.Fatal("Expected a command for the first EDA request")
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- first() }()

	deadline := time.Now().Add(2 * time.Second)
	for h.ctrl.Status(pipeline.ActionBasicEDA) != pipeline.StatusPending {
		if time.Now().After(deadline) {
			t.Fatal("EDA never became pending")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, second := h.model.Update(keyMsg("e")); second != nil {
		t.Error("Expected no command while EDA is pending")
	}

	h.model.Update(<-done)
	if hits := h.server.Hits("/eda"); hits != 1 {
		t.Errorf("Expected exactly one EDA request, got %d", hits)
	}
}

func TestDashboardDropsRepeatedKeyPress(t *testing.T) {
	h := newHarness(t, Options{Dataset: writeDataset(t)})
	h.press(t, "u")

	// neither command has started when the second press arrives
	_, first := h.model.Update(keyMsg("e"))
	_, second := h.model.Update(keyMsg("e"))
	if first == nil {
		t.Fatal("Expected a command for the first EDA request")
	}
	if second != nil {
		t.Fatal("Expected no command for a repeated press")
	}

	h.model.Update(first())
	if hits := h.server.Hits("/eda"); hits != 1 {
		t.Errorf("Expected exactly one EDA request, got %d", hits)
	}

	h.press(t, "e")
	if hits := h.server.Hits("/eda"); hits != 2 {
		t.Errorf("Expected a new request once the first finished, got %d hits", hits)
	}
}

func TestDashboardPlotKindCycle(t *testing.T) {
	h := newHarness(t, Options{Dataset: writeDataset(t), Target: "species"})
	h.press(t, "u")

	h.press(t, "v")
	if h.model.selectedPlotKind() != automl.PlotBox {
		t.Errorf("Expected box plot, got %s", h.model.selectedPlotKind())
	}
	h.press(t, "v")
	h.press(t, "g")

	plot := h.ctrl.Results().Plot
	if plot == nil || plot.Kind != automl.PlotScatter {
		t.Fatalf("Expected scatter plot, got %+v", plot)
	}
	if len(plot.Columns) != 2 || plot.Columns[0] != "sepal_length" || plot.Columns[1] != "species" {
		t.Errorf("Expected sepal_length vs species, got %v", plot.Columns)
	}

	h.press(t, "v")
	if h.model.selectedPlotKind() != automl.PlotDistribution {
		t.Errorf("Expected cycle back to distribution, got %s", h.model.selectedPlotKind())
	}
}

func TestDashboardThemeToggle(t *testing.T) {
	SetMode(ModeDark)
	t.Cleanup(func() { SetMode(ModeDark) })

	h := newHarness(t, Options{})
	h.press(t, "T")
	if CurrentMode() != ModeLight {
		t.Errorf("Expected light mode, got %s", CurrentMode())
	}
	if !strings.Contains(h.model.View(), "theme: light") {
		t.Error("Expected status line to show the light theme")
	}
	h.press(t, "T")
	if CurrentMode() != ModeDark {
		t.Errorf("Expected dark mode, got %s", CurrentMode())
	}
}

func TestDashboardClose(t *testing.T) {
	h := newHarness(t, Options{})
	for len(h.model.events) > 0 {
		<-h.model.events
	}

	h.model.Close()
	h.ctrl.Reset()
	if n := len(h.model.events); n != 0 {
		t.Errorf("Expected no events after Close, got %d", n)
	}
}

func TestDashboardQuit(t *testing.T) {
	h := newHarness(t, Options{})

	_, cmd := h.model.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if h.model.View() != "" {
		t.Error("Expected empty view after quitting")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		want    Mode
		wantErr bool
	}{
		{"", ModeDark, false},
		{"dark", ModeDark, false},
		{"light", ModeLight, false},
		{"solarized", ModeDark, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestToggleMode(t *testing.T) {
	SetMode(ModeDark)
	t.Cleanup(func() { SetMode(ModeDark) })

	if got := ToggleMode(); got != ModeLight {
		t.Errorf("Expected light, got %s", got)
	}
	if got := ToggleMode(); got != ModeDark {
		t.Errorf("Expected dark, got %s", got)
	}
	if GetTheme().Name != "dark" {
		t.Errorf("Expected dark palette, got %s", GetTheme().Name)
	}
}

func TestBlend(t *testing.T) {
	dark := &renderer{styles: NewStyles(DarkTheme), mode: ModeDark}
	light := &renderer{styles: NewStyles(LightTheme), mode: ModeLight}

	transparent := views.RGBA{R: 124, G: 58, B: 237, A: 0}
	if got := dark.blend(transparent); got != "#111827" {
		t.Errorf("Expected dark background, got %s", got)
	}
	if got := light.blend(transparent); got != "#ffffff" {
		t.Errorf("Expected light background, got %s", got)
	}

	opaque := views.RGBA{R: 124, G: 58, B: 237, A: 1}
	if got := dark.blend(opaque); got != "#7c3aed" {
		t.Errorf("Expected full hue, got %s", got)
	}
}

func TestRendererEmptyViews(t *testing.T) {
	r := &renderer{styles: NewStyles(DarkTheme), mode: ModeDark}
	tests := []struct {
		view pipeline.View
		want string
	}{
		{pipeline.ViewHome, "No dataset loaded"},
		{pipeline.ViewEDA, "Run EDA"},
		{pipeline.ViewExtendedEDA, "correlation analysis"},
		{pipeline.ViewModel, "train with t"},
		{pipeline.ViewPreview, "Upload a dataset first"},
	}

	for _, tt := range tests {
		got := r.content(pipeline.Snapshot{View: tt.view})
		if !strings.Contains(got, tt.want) {
			t.Errorf("View %s: expected %q, got %q", tt.view, tt.want, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("sepal_length", 6); got != "sepal…" {
		t.Errorf("Expected sepal…, got %s", got)
	}
	if got := truncate("age", 6); got != "age" {
		t.Errorf("Expected age, got %s", got)
	}
}
