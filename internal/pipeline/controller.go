package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yildizm/mlstudio/internal/automl"
	"github.com/yildizm/mlstudio/internal/clock"
	"github.com/yildizm/mlstudio/internal/logger"
	"github.com/yildizm/mlstudio/internal/notify"
	"github.com/yildizm/mlstudio/internal/views"
)

// Notification texts that do not come from the service
const (
	MsgTrainingStarted = "Training models... this may take a moment"
	MsgUnsupported     = "Only CSV or XLSX files are supported"
)

// fallbackMessages are shown when a failure carries no service detail
var fallbackMessages = map[Action]string{
	ActionUpload:       "Upload failed",
	ActionBasicEDA:     "EDA failed",
	ActionExtendedEDA:  "Extended EDA failed",
	ActionFeatureStats: "Feature analysis failed",
	ActionStatTest:     "Stat test failed",
	ActionPlot:         "Plot failed",
	ActionTrain:        "Training failed",
	ActionExplain:      "SHAP failed",
	ActionDownload:     "Download failed",
}

// Recorder persists finished actions
type Recorder interface {
	Record(ctx context.Context, r RunRecord) error
}

// Controller sequences the workflow actions against an automl.Service.
//
// State is guarded by mu, which is never held across a service call. Each
// action writes only its own result slot, so overlapping actions cannot
// corrupt each other.
type Controller struct {
	svc      automl.Service
	notes    *notify.Queue
	log      *logger.Logger
	clock    clock.Clock
	recorder Recorder

	mu        sync.Mutex
	sessionID string
	dataset   string
	progress  Stage
	schema    Schema
	target    string
	view      View
	results   Results
	status    map[Action]Status

	listenersMu  sync.Mutex
	listeners    []subscription
	nextListener int
}

type subscription struct {
	id int
	fn Listener
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithClock sets the time source used for run durations
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithRecorder persists every finished action
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// New creates a controller. A nil queue gets a default one.
func New(svc automl.Service, notes *notify.Queue, opts ...Option) *Controller {
	c := &Controller{
		svc:   svc,
		notes: notes,
		clock: clock.Real(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notes == nil {
		c.notes = notify.NewQueue(c.clock, notify.DefaultTTL)
	}
	c.resetLocked()
	return c
}

// Notifications returns the queue outcomes are pushed to
func (c *Controller) Notifications() *notify.Queue {
	return c.notes
}

// Subscribe registers l for every event and returns a function that removes it
func (c *Controller) Subscribe(l Listener) func() {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners = append(c.listeners, subscription{id: id, fn: l})
	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		c.listeners = slices.DeleteFunc(c.listeners, func(s subscription) bool { return s.id == id })
	}
}

// Reset starts a new session: progress, schema, target, results and statuses are cleared
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked()
	sessionID := c.sessionID
	c.mu.Unlock()

	c.log.InfoWithFields("session reset", []logger.Field{logger.F("session", sessionID)})
	c.emit(Event{Status: StatusIdle, Message: "session reset"})
}

func (c *Controller) resetLocked() {
	c.sessionID = uuid.NewString()
	c.dataset = ""
	c.progress = StageUpload
	c.schema = Schema{}
	c.target = ""
	c.view = ViewHome
	c.results = Results{}
	c.status = make(map[Action]Status, len(Actions))
	for _, a := range Actions {
		c.status[a] = StatusIdle
	}
}

// Upload sends a .csv or .xlsx dataset. On success the schema is replaced, the
// EDA stage unlocks and a best-effort preview is fetched.
func (c *Controller) Upload(ctx context.Context, name string, data io.Reader) error {
	if err := CheckFormat(name); err != nil {
		return c.refuse(ctx, ActionUpload, err)
	}

	base := filepath.Base(name)
	err := c.run(ctx, ActionUpload, func() (outcome, error) {
		res, err := c.svc.Upload(ctx, base, data)
		if err != nil {
			return outcome{}, err
		}
		cols := res.DatasetInfo.ColumnNames
		if len(cols) == 0 {
			return outcome{}, &views.MalformedResponseError{Transform: "dataset info", Reason: "no columns"}
		}
		schema := Schema{Columns: slices.Clone(cols), Rows: res.DatasetInfo.Rows}

		return outcome{
			message: fmt.Sprintf("Dataset uploaded: %d rows, %d columns", schema.Rows, len(schema.Columns)),
			apply: func() {
				c.schema = schema
				c.dataset = base
				c.progress = max(c.progress, StageEDA)
				c.view = ViewEDA
				if !schema.Has(c.target) {
					c.target = ""
				}
			},
		}, nil
	})
	if err != nil {
		return err
	}

	c.fetchPreview(ctx)
	return nil
}

// UploadFile opens a local dataset file and uploads it
func (c *Controller) UploadFile(ctx context.Context, path string) error {
	if err := CheckFormat(path); err != nil {
		return c.refuse(ctx, ActionUpload, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return c.refuse(ctx, ActionUpload, fmt.Errorf("open dataset: %w", err))
	}
	defer func() { _ = f.Close() }()

	return c.Upload(ctx, path, f)
}

// fetchPreview stores the dataset preview. Failures are logged and otherwise ignored.
func (c *Controller) fetchPreview(ctx context.Context) {
	preview, err := c.svc.Preview(ctx)
	if err != nil {
		c.log.DebugWithFields("preview unavailable", []logger.Field{logger.Error(err)})
		return
	}

	c.mu.Lock()
	c.results.Preview = preview
	c.mu.Unlock()
	c.emit(Event{Action: ActionPreview, Status: StatusSucceeded})
}

// RunBasicEDA fetches the basic summary and unlocks training
func (c *Controller) RunBasicEDA(ctx context.Context) error {
	if err := c.requireDataset(ActionBasicEDA); err != nil {
		return c.refuse(ctx, ActionBasicEDA, err)
	}

	return c.run(ctx, ActionBasicEDA, func() (outcome, error) {
		res, err := c.svc.BasicEDA(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			message: "Basic EDA complete",
			apply: func() {
				c.results.EDA = res
				c.progress = max(c.progress, StageTrain)
				c.view = ViewEDA
			},
		}, nil
	})
}

// RunExtendedEDA fetches correlations and histograms
func (c *Controller) RunExtendedEDA(ctx context.Context) error {
	if err := c.requireDataset(ActionExtendedEDA); err != nil {
		return c.refuse(ctx, ActionExtendedEDA, err)
	}

	return c.run(ctx, ActionExtendedEDA, func() (outcome, error) {
		res, err := c.svc.ExtendedEDA(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			message: "Extended EDA complete",
			apply: func() {
				c.results.ExtendedEDA = res
				c.view = ViewExtendedEDA
			},
		}, nil
	})
}

// RunFeatureStats fetches per-feature missing and unique counts
func (c *Controller) RunFeatureStats(ctx context.Context) error {
	if err := c.requireDataset(ActionFeatureStats); err != nil {
		return c.refuse(ctx, ActionFeatureStats, err)
	}

	return c.run(ctx, ActionFeatureStats, func() (outcome, error) {
		res, err := c.svc.FeatureStats(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			message: "Feature analysis complete",
			apply: func() {
				c.results.FeatureStats = res
				c.view = ViewFeatureStats
			},
		}, nil
	})
}

// RunStatTest runs the statistical test between two dataset columns. The view is left unchanged.
func (c *Controller) RunStatTest(ctx context.Context, colA, colB string) error {
	if err := c.requireColumns(ActionStatTest, colA, colB); err != nil {
		return c.refuse(ctx, ActionStatTest, err)
	}

	return c.run(ctx, ActionStatTest, func() (outcome, error) {
		res, err := c.svc.StatTest(ctx, colA, colB)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			message: "Statistical test complete",
			apply: func() {
				c.results.StatTest = &StatTestResult{Columns: [2]string{colA, colB}, Values: res}
			},
		}, nil
	})
}

// RenderPlot renders a chart of colA, or of colA against colB for scatter plots
func (c *Controller) RenderPlot(ctx context.Context, kind automl.PlotKind, colA, colB string) error {
	if !kind.Valid() {
		return c.refuse(ctx, ActionPlot, &PreconditionError{Action: ActionPlot, Reason: ErrInvalidPlotKind, Column: string(kind)})
	}

	cols := []string{colA}
	if kind == automl.PlotScatter {
		cols = append(cols, colB)
	}
	if err := c.requireColumns(ActionPlot, cols...); err != nil {
		return c.refuse(ctx, ActionPlot, err)
	}

	return c.run(ctx, ActionPlot, func() (outcome, error) {
		res, err := c.svc.Plot(ctx, kind, colA, colB)
		if err != nil {
			return outcome{}, err
		}
		image, err := res.PNG()
		if err != nil {
			return outcome{}, &views.MalformedResponseError{Transform: "plot", Reason: "image is not valid base64"}
		}
		return outcome{
			message: "Plot rendered",
			apply: func() {
				c.results.Plot = &PlotResult{Kind: kind, Columns: cols, Image: image}
				c.view = ViewPlot
			},
		}, nil
	})
}

// Train fits candidate models against target. target must be a dataset column.
// Once the target is accepted an info notification announces the request; the
// success or error notification for the outcome follows it. A refused target
// produces only the error.
func (c *Controller) Train(ctx context.Context, target string) error {
	schema := c.Schema()
	if !schema.Has(target) {
		return c.refuse(ctx, ActionTrain, &PreconditionError{
			Action:     ActionTrain,
			Reason:     ErrNoTargetSelected,
			Column:     target,
			Suggestion: Suggest(target, schema.Columns),
		})
	}

	c.notes.Info(MsgTrainingStarted)

	return c.run(ctx, ActionTrain, func() (outcome, error) {
		res, err := c.svc.Train(ctx, target)
		if err != nil {
			return outcome{}, err
		}
		model, err := buildModelResult(res)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			message: "Best model: " + res.BestModel,
			apply: func() {
				c.results.Model = model
				c.target = target
				c.progress = max(c.progress, StageExplain)
				c.view = ViewModel
			},
		}, nil
	})
}

func buildModelResult(res *automl.TrainResult) (*ModelResult, error) {
	scores := make([]views.Score, len(res.Scores))
	for i, e := range res.Scores {
		scores[i] = views.Score{Name: e.Key, Value: e.Value}
	}

	ranking, err := views.RankModels(scores, res.BestModel, string(res.ProblemType))
	if err != nil {
		return nil, err
	}
	model := &ModelResult{Result: res, Ranking: ranking}

	if cm := res.Metrics.ConfusionMatrix; len(cm) > 0 {
		if model.Confusion, err = views.ClassifyConfusion(cm); err != nil {
			return nil, err
		}
	}
	if roc := res.Metrics.ROCCurve; roc != nil {
		if model.ROC, err = views.PairROC(roc.FPR, roc.TPR); err != nil {
			return nil, err
		}
	}
	return model, nil
}

// Explain computes the top feature importances of the trained model
func (c *Controller) Explain(ctx context.Context) error {
	if err := c.requireModel(ActionExplain); err != nil {
		return c.refuse(ctx, ActionExplain, err)
	}

	return c.run(ctx, ActionExplain, func() (outcome, error) {
		res, err := c.svc.Explain(ctx)
		if err != nil {
			return outcome{}, err
		}
		ranking, err := views.RankFeatures(res.Features, res.Importance, views.TopFeatures)
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			message: "SHAP values computed",
			apply: func() {
				c.results.Explanation = ranking
				c.view = ViewExplain
			},
		}, nil
	})
}

// DownloadModel streams the trained model into w and returns the byte count
func (c *Controller) DownloadModel(ctx context.Context, w io.Writer) (int64, error) {
	if err := c.requireModel(ActionDownload); err != nil {
		return 0, c.refuse(ctx, ActionDownload, err)
	}

	var written int64
	err := c.run(ctx, ActionDownload, func() (outcome, error) {
		n, err := c.svc.DownloadModel(ctx, w)
		written = n
		if err != nil {
			return outcome{}, err
		}
		return outcome{
			message: fmt.Sprintf("Model downloaded (%d bytes)", n),
			apply:   func() {},
		}, nil
	})
	return written, err
}

// SelectTarget sets the training target. An empty name clears it.
func (c *Controller) SelectTarget(col string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if col != "" && !c.schema.Has(col) {
		return &PreconditionError{
			Action:     ActionTrain,
			Reason:     ErrUnknownColumn,
			Column:     col,
			Suggestion: Suggest(col, c.schema.Columns),
		}
	}
	c.target = col
	return nil
}

// SetView switches the active view
func (c *Controller) SetView(v View) error {
	if !v.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidView, v)
	}
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
	return nil
}

// ShowPreview switches to the preview view, or notifies when no preview is loaded
func (c *Controller) ShowPreview() error {
	c.mu.Lock()
	hasPreview := c.results.Preview != nil
	if hasPreview {
		c.view = ViewPreview
	}
	c.mu.Unlock()

	if !hasPreview {
		err := &PreconditionError{Action: ActionPreview, Reason: ErrNoDataset}
		c.notes.Error(err.Notice())
		return err
	}
	return nil
}

// Busy reports whether any action is pending
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busyLocked()
}

func (c *Controller) busyLocked() bool {
	for _, s := range c.status {
		if s == StatusPending {
			return true
		}
	}
	return false
}

// Status returns the status of the latest invocation of action
func (c *Controller) Status(action Action) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.status[action]; ok {
		return s
	}
	return StatusIdle
}

// Progress returns the workflow stage reached
func (c *Controller) Progress() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// View returns the active view
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Target returns the selected target column
func (c *Controller) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Schema returns a copy of the dataset schema
func (c *Controller) Schema() Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Schema{Columns: slices.Clone(c.schema.Columns), Rows: c.schema.Rows}
}

// Results returns the stored results. Payloads are shared and must not be modified.
func (c *Controller) Results() Results {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

// Snapshot returns a consistent copy of the controller state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SessionID: c.sessionID,
		Dataset:   c.dataset,
		Progress:  c.progress,
		Schema:    Schema{Columns: slices.Clone(c.schema.Columns), Rows: c.schema.Rows},
		Target:    c.target,
		View:      c.view,
		Status:    maps.Clone(c.status),
		Busy:      c.busyLocked(),
		Results:   c.results,
	}
}

// outcome is what a successful call hands back: the notification text and the
// state mutation to apply under the lock
type outcome struct {
	message string
	apply   func()
}

// run marks action pending, performs call without holding the lock, then applies
// the outcome or records the failure. Exactly one outcome notification is pushed.
func (c *Controller) run(ctx context.Context, action Action, call func() (outcome, error)) error {
	start := c.clock.Now()

	c.mu.Lock()
	c.status[action] = StatusPending
	c.mu.Unlock()
	c.emit(Event{Action: action, Status: StatusPending})
	c.log.DebugWithFields("action started", []logger.Field{logger.Action(string(action))})

	out, err := call()
	if err != nil {
		return c.fail(ctx, action, err, start)
	}

	c.mu.Lock()
	out.apply()
	c.status[action] = StatusSucceeded
	c.mu.Unlock()

	c.notes.Success(out.message)
	c.log.InfoWithFields("action succeeded", []logger.Field{
		logger.Action(string(action)),
		logger.Duration(c.clock.Now().Sub(start)),
	})
	c.record(ctx, action, StatusSucceeded, out.message, start)
	c.emit(Event{Action: action, Status: StatusSucceeded, Message: out.message})
	return nil
}

// refuse fails action before any request is sent
func (c *Controller) refuse(ctx context.Context, action Action, err error) error {
	return c.fail(ctx, action, err, c.clock.Now())
}

func (c *Controller) fail(ctx context.Context, action Action, err error, start time.Time) error {
	msg := failureMessage(action, err)

	c.mu.Lock()
	c.status[action] = StatusFailed
	c.mu.Unlock()

	c.notes.Error(msg)
	c.log.WarnWithFields("action failed", []logger.Field{
		logger.Action(string(action)),
		logger.Duration(c.clock.Now().Sub(start)),
		logger.Error(err),
	})
	c.record(ctx, action, StatusFailed, msg, start)
	c.emit(Event{Action: action, Status: StatusFailed, Message: msg, Err: err})
	return err
}

// failureMessage picks the notification text for a failed action
func failureMessage(action Action, err error) string {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe.Notice()
	}
	if IsUnsupportedFormat(err) {
		return MsgUnsupported
	}
	if detail := automl.ServiceDetail(err); detail != "" {
		return detail
	}
	return fallbackMessages[action]
}

func (c *Controller) requireDataset(action Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.schema.Empty() {
		return &PreconditionError{Action: action, Reason: ErrNoDataset}
	}
	return nil
}

func (c *Controller) requireColumns(action Action, cols ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.schema.Empty() {
		return &PreconditionError{Action: action, Reason: ErrNoDataset}
	}
	for _, col := range cols {
		if !c.schema.Has(col) {
			return &PreconditionError{
				Action:     action,
				Reason:     ErrUnknownColumn,
				Column:     col,
				Suggestion: Suggest(col, c.schema.Columns),
			}
		}
	}
	return nil
}

func (c *Controller) requireModel(action Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results.Model == nil {
		return &PreconditionError{Action: action, Reason: ErrNoModelTrained}
	}
	return nil
}

func (c *Controller) record(ctx context.Context, action Action, status Status, msg string, start time.Time) {
	if c.recorder == nil {
		return
	}

	c.mu.Lock()
	rec := RunRecord{
		SessionID: c.sessionID,
		Action:    action,
		Status:    status,
		Message:   msg,
		Dataset:   c.dataset,
		Target:    c.target,
		StartedAt: start,
		Duration:  c.clock.Now().Sub(start),
	}
	c.mu.Unlock()

	if err := c.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		c.log.WarnWithFields("failed to record run", []logger.Field{logger.Action(string(action)), logger.Error(err)})
	}
}

func (c *Controller) emit(ev Event) {
	c.listenersMu.Lock()
	subs := slices.Clone(c.listeners)
	c.listenersMu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
