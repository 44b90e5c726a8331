package views

import (
	"math"
	"testing"
)

func TestRankModels(t *testing.T) {
	scores := []Score{{"A", 0.8}, {"B", 0.95}, {"C", 0.95}}

	ranking, err := RankModels(scores, "B", "binary")
	if err != nil {
		t.Fatalf("RankModels failed: %v", err)
	}

	want := []struct {
		name   string
		width  float64
		winner bool
	}{
		{"B", 100.0, true},
		{"C", 100.0, false},
		{"A", 84.2, false},
	}

	if len(ranking.Entries) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(ranking.Entries))
	}
	for i, w := range want {
		got := ranking.Entries[i]
		if got.Name != w.name || got.Width != w.width || got.Winner != w.winner {
			t.Errorf("Entry %d: expected %+v, got %+v", i, w, got)
		}
	}
	if ranking.AxisLabel != AxisAccuracy {
		t.Errorf("Expected axis %q, got %q", AxisAccuracy, ranking.AxisLabel)
	}
}

func TestRankModelsRegressionAxis(t *testing.T) {
	ranking, err := RankModels([]Score{{"Ridge", 0.5}}, "Ridge", "regression")
	if err != nil {
		t.Fatalf("RankModels failed: %v", err)
	}
	if ranking.AxisLabel != AxisR2 {
		t.Errorf("Expected axis %q, got %q", AxisR2, ranking.AxisLabel)
	}
}

func TestRankModelsZeroMax(t *testing.T) {
	ranking, err := RankModels([]Score{{"A", 0}, {"B", -0.3}}, "A", "regression")
	if err != nil {
		t.Fatalf("RankModels failed: %v", err)
	}
	for _, e := range ranking.Entries {
		if e.Width != 0 {
			t.Errorf("Expected zero width for %s, got %v", e.Name, e.Width)
		}
	}
}

func TestRankModelsDoesNotMutateInput(t *testing.T) {
	scores := []Score{{"A", 0.1}, {"B", 0.9}}
	if _, err := RankModels(scores, "B", "binary"); err != nil {
		t.Fatalf("RankModels failed: %v", err)
	}
	if scores[0].Name != "A" {
		t.Errorf("Expected input order preserved, got %v", scores)
	}
}

func TestRankModelsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		scores []Score
	}{
		{"empty", nil},
		{"nan", []Score{{"A", math.NaN()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RankModels(tt.scores, "", "binary")
			if !IsMalformed(err) {
				t.Errorf("Expected malformed error, got %v", err)
			}
		})
	}
}

func TestCorrelationCell(t *testing.T) {
	tests := []struct {
		value  float64
		hue    RGBA
		alpha  float64
		label  string
		bright bool
	}{
		{1, PositiveHue, 1, "1.0", true},
		{0.62, PositiveHue, 0.62, "0.6", true},
		{0.5, PositiveHue, 0.5, "0.5", false},
		{-0.73, NegativeHue, 0.73, "-0.7", true},
		{-1.4, NegativeHue, 1, "-1.0", true},
		{0, NegativeHue, 0, "0.0", false},
		{math.NaN(), NegativeHue, 0, "0.0", false},
	}

	for _, tt := range tests {
		cell := CorrelationCell("x", "y", tt.value)
		if cell.Color.R != tt.hue.R || cell.Color.G != tt.hue.G || cell.Color.B != tt.hue.B {
			t.Errorf("%v: expected hue %s, got %s", tt.value, tt.hue.Hex(), cell.Color.Hex())
		}
		if cell.Color.A != tt.alpha {
			t.Errorf("%v: expected alpha %v, got %v", tt.value, tt.alpha, cell.Color.A)
		}
		if cell.Label != tt.label {
			t.Errorf("%v: expected label %q, got %q", tt.value, tt.label, cell.Label)
		}
		if cell.Bright != tt.bright {
			t.Errorf("%v: expected bright %v, got %v", tt.value, tt.bright, cell.Bright)
		}
	}
}

func TestBuildHeatmap(t *testing.T) {
	corr := map[string]map[string]float64{
		"a": {"a": 1, "b": -0.4},
		"b": {"a": -0.4, "b": 1},
	}

	h := BuildHeatmap([]string{"b", "a", "c"}, corr)
	if len(h.Cells) != 3 || len(h.Cells[0]) != 3 {
		t.Fatalf("Expected 3x3 grid, got %dx%d", len(h.Cells), len(h.Cells[0]))
	}
	if h.Cells[0][1].Value != -0.4 {
		t.Errorf("Expected b/a = -0.4, got %v", h.Cells[0][1].Value)
	}
	if h.Cells[2][2].Value != 0 {
		t.Errorf("Expected missing pair to be 0, got %v", h.Cells[2][2].Value)
	}
	if got := h.Cells[1][0].Color.CSS(); got != "rgba(239,68,68,0.40)" {
		t.Errorf("Expected negative rgba, got %s", got)
	}
}

func TestRankFeatures(t *testing.T) {
	features := make([]string, 20)
	importance := make([]float64, 20)
	for i := range features {
		features[i] = string(rune('a' + i))
		importance[i] = float64(i % 5)
	}

	ranked, err := RankFeatures(features, importance, TopFeatures)
	if err != nil {
		t.Fatalf("RankFeatures failed: %v", err)
	}
	if len(ranked) != TopFeatures {
		t.Fatalf("Expected %d features, got %d", TopFeatures, len(ranked))
	}
	// ties keep input order: e, j, o, t all score 4
	for i, want := range []string{"e", "j", "o", "t"} {
		if ranked[i].Feature != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, ranked[i].Feature)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Importance > ranked[i-1].Importance {
			t.Errorf("Expected descending order at %d", i)
		}
	}
}

func TestRankFeaturesDistinct(t *testing.T) {
	features := make([]string, 20)
	importance := make([]float64, 20)
	for i := range features {
		features[i] = string(rune('a' + i))
		importance[i] = float64(i) * 0.01
	}

	ranked, err := RankFeatures(features, importance, TopFeatures)
	if err != nil {
		t.Fatalf("RankFeatures failed: %v", err)
	}
	if len(ranked) != 15 {
		t.Fatalf("Expected 15 features, got %d", len(ranked))
	}
	if ranked[0].Feature != "t" || ranked[14].Feature != "f" {
		t.Errorf("Expected t..f, got %s..%s", ranked[0].Feature, ranked[14].Feature)
	}
	if importance[0] != 0 || features[0] != "a" {
		t.Error("Expected input slices to be left untouched")
	}
}

func TestRankFeaturesLengthMismatch(t *testing.T) {
	_, err := RankFeatures([]string{"a", "b"}, []float64{1}, TopFeatures)
	if !IsMalformed(err) {
		t.Errorf("Expected malformed error, got %v", err)
	}
}

func TestPairROC(t *testing.T) {
	points, err := PairROC([]float64{0, 0.12345, 1}, []float64{0, 0.66666, 1})
	if err != nil {
		t.Fatalf("PairROC failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(points))
	}
	if points[1].FPR != 0.123 || points[1].TPR != 0.667 {
		t.Errorf("Expected (0.123, 0.667), got (%v, %v)", points[1].FPR, points[1].TPR)
	}

	if _, err := PairROC([]float64{0, 1}, []float64{0}); !IsMalformed(err) {
		t.Errorf("Expected malformed error, got %v", err)
	}
}

func TestPairROCIdentity(t *testing.T) {
	points, err := PairROC([]float64{0, 0.5, 1}, []float64{0, 0.8, 1})
	if err != nil {
		t.Fatalf("PairROC failed: %v", err)
	}
	want := []ROCPoint{{0, 0}, {0.5, 0.8}, {1, 1}}
	for i, p := range want {
		if points[i] != p {
			t.Errorf("Point %d: expected %+v, got %+v", i, p, points[i])
		}
	}
}

func TestAUCLabel(t *testing.T) {
	if got := AUCLabel(0.912345); got != "AUC: 0.9123" {
		t.Errorf("Expected AUC: 0.9123, got %s", got)
	}
}

func TestClassifyConfusion(t *testing.T) {
	cm, err := ClassifyConfusion([][]int{{50, 3}, {4, 43}})
	if err != nil {
		t.Fatalf("ClassifyConfusion failed: %v", err)
	}
	if cm.Labels[0] != "C0" || cm.Labels[1] != "C1" {
		t.Errorf("Expected C0/C1 labels, got %v", cm.Labels)
	}
	if cm.Cells[0][0].Class != CellCorrect || cm.Cells[1][1].Class != CellCorrect {
		t.Error("Expected diagonal cells to be correct")
	}
	if cm.Cells[0][1].Class != CellIncorrect || cm.Cells[1][0].Count != 4 {
		t.Errorf("Unexpected off-diagonal cell: %+v / %+v", cm.Cells[0][1], cm.Cells[1][0])
	}
}

func TestClassifyConfusionNotSquare(t *testing.T) {
	for _, cm := range [][][]int{{}, {{1, 2}}, {{1, 2}, {3}}} {
		if _, err := ClassifyConfusion(cm); !IsMalformed(err) {
			t.Errorf("Expected malformed error for %v, got %v", cm, err)
		}
	}
}

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		value  interface{}
		suffix string
		want   string
	}{
		{0.9234, "", "92.34%"},
		{0.5, "%", "50.00%"},
		{12.5, "", "12.50"},
		{3.1, " s", "3.10 s"},
		{nil, "", Missing},
		{"n/a", "", "n/a"},
		{"0.25", "", "25.00%"},
	}

	for _, tt := range tests {
		if got := FormatMetric(tt.value, tt.suffix); got != tt.want {
			t.Errorf("FormatMetric(%v, %q): expected %q, got %q", tt.value, tt.suffix, tt.want, got)
		}
	}
}

func TestMetricBar(t *testing.T) {
	tests := []struct {
		value float64
		want  float64
	}{
		{0.85, 85},
		{250, 100},
		{100, 100},
		{42, 42},
		{-0.3, 30},
		{0, 0},
	}

	for _, tt := range tests {
		if got := MetricBar(tt.value); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MetricBar(%v): expected %v, got %v", tt.value, tt.want, got)
		}
	}
}

func TestStepStates(t *testing.T) {
	states := StepStates(2, 5)
	want := []StepState{StepDone, StepDone, StepActive, StepPending, StepPending}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("Stage %d: expected %s, got %s", i, want[i], states[i])
		}
	}
}
