package pipeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/yildizm/mlstudio/internal/automl"
	"github.com/yildizm/mlstudio/internal/views"
)

// Stage is the workflow progress ordinal
type Stage int

const (
	StageUpload Stage = iota
	StageEDA
	StageTrain
	StageExplain
)

// Stages lists every stage in order
var Stages = []Stage{StageUpload, StageEDA, StageTrain, StageExplain}

func (s Stage) String() string {
	switch s {
	case StageUpload:
		return "Upload"
	case StageEDA:
		return "EDA"
	case StageTrain:
		return "Train"
	case StageExplain:
		return "Explain"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// View identifies the active result panel
type View string

const (
	ViewHome         View = "home"
	ViewEDA          View = "eda"
	ViewExtendedEDA  View = "eda-extended"
	ViewFeatureStats View = "feature-stats"
	ViewStatTest     View = "stat-test"
	ViewPlot         View = "plot"
	ViewModel        View = "model"
	ViewExplain      View = "explain"
	ViewPreview      View = "preview"
)

// Views lists every view identifier
var Views = []View{
	ViewHome, ViewEDA, ViewExtendedEDA, ViewFeatureStats, ViewStatTest,
	ViewPlot, ViewModel, ViewExplain, ViewPreview,
}

// Valid reports whether v is a known view
func (v View) Valid() bool {
	return slices.Contains(Views, v)
}

// Action is a workflow action
type Action string

const (
	ActionUpload       Action = "upload"
	ActionBasicEDA     Action = "eda"
	ActionExtendedEDA  Action = "eda-extended"
	ActionFeatureStats Action = "feature-stats"
	ActionStatTest     Action = "stat-test"
	ActionPlot         Action = "plot"
	ActionTrain        Action = "train"
	ActionExplain      Action = "explain"
	ActionDownload     Action = "download"

	// ActionPreview is the best-effort fetch that follows an upload. It has no status.
	ActionPreview Action = "preview"
)

// Actions lists the actions that carry a status
var Actions = []Action{
	ActionUpload, ActionBasicEDA, ActionExtendedEDA, ActionFeatureStats,
	ActionStatTest, ActionPlot, ActionTrain, ActionExplain, ActionDownload,
}

// Status is the lifecycle of the latest invocation of an action
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Schema is the column layout of the uploaded dataset
type Schema struct {
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// Empty reports whether no dataset is loaded
func (s Schema) Empty() bool {
	return len(s.Columns) == 0
}

// Has reports whether col is a dataset column
func (s Schema) Has(col string) bool {
	return col != "" && slices.Contains(s.Columns, col)
}

// ModelResult is a training result with its display structures
type ModelResult struct {
	Result    *automl.TrainResult    `json:"result"`
	Ranking   *views.ModelRanking    `json:"ranking"`
	Confusion *views.ConfusionMatrix `json:"confusion,omitempty"`
	ROC       []views.ROCPoint       `json:"roc,omitempty"`
}

// PlotResult is a rendered chart and the columns it was drawn from
type PlotResult struct {
	Kind    automl.PlotKind `json:"kind"`
	Columns []string        `json:"columns"`
	Image   []byte          `json:"image"`
}

// StatTestResult is a statistical test outcome and its columns
type StatTestResult struct {
	Columns [2]string             `json:"columns"`
	Values  automl.StatTestResult `json:"values"`
}

// Results holds the latest successful payload of each action. Nil means never fetched.
type Results struct {
	Preview      *automl.Preview           `json:"preview,omitempty"`
	EDA          *automl.EDASummary        `json:"eda,omitempty"`
	ExtendedEDA  *automl.ExtendedEDA       `json:"extended_eda,omitempty"`
	FeatureStats *automl.FeatureStats      `json:"feature_stats,omitempty"`
	StatTest     *StatTestResult           `json:"stat_test,omitempty"`
	Plot         *PlotResult               `json:"plot,omitempty"`
	Model        *ModelResult              `json:"model,omitempty"`
	Explanation  []views.FeatureImportance `json:"explanation,omitempty"`
}

// Snapshot is a consistent copy of controller state
type Snapshot struct {
	SessionID string            `json:"session_id"`
	Dataset   string            `json:"dataset,omitempty"`
	Progress  Stage             `json:"progress"`
	Schema    Schema            `json:"schema"`
	Target    string            `json:"target,omitempty"`
	View      View              `json:"view"`
	Status    map[Action]Status `json:"status"`
	Busy      bool              `json:"busy"`
	Results   Results           `json:"results"`
}

// Event is published on every status transition
type Event struct {
	Action  Action
	Status  Status
	Message string
	Err     error
}

// Listener receives controller events. It runs on the goroutine that completed the action.
type Listener func(Event)

// RunRecord describes one finished action for the run history
type RunRecord struct {
	SessionID string
	Action    Action
	Status    Status
	Message   string
	Dataset   string
	Target    string
	StartedAt time.Time
	Duration  time.Duration
}
