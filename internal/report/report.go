package report

import (
	"fmt"
	"time"

	"github.com/yildizm/mlstudio/internal/automl"
	"github.com/yildizm/mlstudio/internal/pipeline"
	"github.com/yildizm/mlstudio/internal/views"
)

// Report is the renderable summary of a pipeline session
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	SessionID   string    `json:"session_id"`
	Dataset     string    `json:"dataset,omitempty"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	Target      string    `json:"target,omitempty"`
	Steps       []Step    `json:"steps"`

	Overview []Card                    `json:"overview,omitempty"`
	Missing  automl.Ordered[int]       `json:"missing,omitempty"`
	Heatmap  *views.Heatmap            `json:"heatmap,omitempty"`
	StatTest *pipeline.StatTestResult  `json:"stat_test,omitempty"`
	Model    *ModelSection             `json:"model,omitempty"`
	Features []views.FeatureImportance `json:"features,omitempty"`
}

// Step is one stage of the workflow stepper
type Step struct {
	Name  string          `json:"name"`
	State views.StepState `json:"state"`
}

// Card is a labelled metric value with its bar fill percentage
type Card struct {
	Title string  `json:"title"`
	Value string  `json:"value"`
	Bar   float64 `json:"bar"`
}

// ModelSection describes the training outcome
type ModelSection struct {
	BestModel   string                 `json:"best_model"`
	ProblemType automl.ProblemType     `json:"problem_type"`
	Ranking     *views.ModelRanking    `json:"ranking"`
	Metrics     []Card                 `json:"metrics"`
	Confusion   *views.ConfusionMatrix `json:"confusion,omitempty"`
	ROC         []views.ROCPoint       `json:"roc,omitempty"`
	AUC         string                 `json:"auc,omitempty"`
}

// Build assembles a report from a controller snapshot
func Build(snap pipeline.Snapshot, generatedAt time.Time) *Report {
	r := &Report{
		GeneratedAt: generatedAt,
		SessionID:   snap.SessionID,
		Dataset:     snap.Dataset,
		Rows:        snap.Schema.Rows,
		Columns:     snap.Schema.Columns,
		Target:      snap.Target,
		Features:    snap.Results.Explanation,
		StatTest:    snap.Results.StatTest,
	}

	states := views.StepStates(int(snap.Progress), len(pipeline.Stages))
	for i, stage := range pipeline.Stages {
		r.Steps = append(r.Steps, Step{Name: stage.String(), State: states[i]})
	}

	if eda := snap.Results.EDA; eda != nil {
		r.Overview = edaCards(eda)
		r.Missing = eda.Missing
	}
	if full := snap.Results.ExtendedEDA; full != nil && len(full.Correlation) > 0 {
		r.Heatmap = views.BuildHeatmap(full.CorrelationMatrix())
	}
	if m := snap.Results.Model; m != nil {
		r.Model = modelSection(m)
	}
	return r
}

func edaCards(eda *automl.EDASummary) []Card {
	missing := 0
	for _, e := range eda.Missing {
		missing += e.Value
	}
	return []Card{
		card("Rows", eda.Shape.Rows, ""),
		card("Columns", eda.Shape.Columns, ""),
		card("Missing Values", missing, ""),
		card("Numeric Cols", len(eda.Describe), ""),
	}
}

func modelSection(m *pipeline.ModelResult) *ModelSection {
	res := m.Result
	section := &ModelSection{
		BestModel:   res.BestModel,
		ProblemType: res.ProblemType,
		Ranking:     m.Ranking,
		Confusion:   m.Confusion,
		ROC:         m.ROC,
	}

	metrics := res.Metrics
	if res.ProblemType.IsRegression() || metrics.R2 != nil {
		section.Metrics = []Card{
			card("R² Score", metrics.R2, ""),
			card("RMSE", metrics.RMSE, ""),
		}
	} else {
		section.Metrics = []Card{
			card("Accuracy", metrics.Accuracy, ""),
			card("F1 Score", metrics.F1, ""),
			card("Precision", metrics.Precision, ""),
			card("Recall", metrics.Recall, ""),
		}
	}

	if metrics.ROCCurve != nil {
		section.AUC = views.AUCLabel(metrics.ROCCurve.AUC)
	}
	return section
}

func card(title string, value interface{}, suffix string) Card {
	switch v := value.(type) {
	case *float64:
		if v == nil {
			return Card{Title: title, Value: views.Missing}
		}
		return Card{Title: title, Value: views.FormatMetric(*v, suffix), Bar: views.MetricBar(*v)}
	case int:
		return Card{Title: title, Value: views.FormatMetric(v, suffix), Bar: views.MetricBar(float64(v))}
	default:
		return Card{Title: title, Value: views.FormatMetric(value, suffix)}
	}
}

// formatNumber formats numbers with commas for readability
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	return addCommas(fmt.Sprintf("%d", n))
}

func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}
