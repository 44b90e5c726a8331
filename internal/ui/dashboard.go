package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/mlstudio/internal/automl"
	"github.com/yildizm/mlstudio/internal/emoji"
	"github.com/yildizm/mlstudio/internal/notify"
	"github.com/yildizm/mlstudio/internal/pipeline"
)

// maxVisibleNotifications caps the toast area
const maxVisibleNotifications = 3

// Options configures the dashboard
type Options struct {
	Dataset string // file uploaded by u and at start
	Target  string // selected after the first successful upload
}

// Model is the interactive pipeline dashboard
type Model struct {
	ctx  context.Context
	ctrl *pipeline.Controller
	opts Options

	events      chan pipeline.Event
	changed     chan struct{}
	unsubscribe func()

	spinner  spinner.Model
	viewport viewport.Model

	width    int
	height   int
	ready    bool
	quitting bool
	showHelp bool

	// column used by the stat test and plot keys, as an index into the schema
	column   int
	plotKind int

	// actions whose command was returned but has not reported back yet
	inFlight map[pipeline.Action]bool
}

// plotKinds is the order the v key cycles through
var plotKinds = []automl.PlotKind{automl.PlotDistribution, automl.PlotBox, automl.PlotScatter}

// NewModel creates a dashboard driving ctrl
func NewModel(ctx context.Context, ctrl *pipeline.Controller, opts Options) *Model {
	m := &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		opts:     opts,
		events:   make(chan pipeline.Event, 64),
		changed:  make(chan struct{}, 1),
		inFlight: make(map[pipeline.Action]bool),
	}

	// the controller must never block on a slow UI; the view re-reads state anyway
	m.unsubscribe = ctrl.Subscribe(func(ev pipeline.Event) {
		select {
		case m.events <- ev:
		default:
		}
	})
	ctrl.Notifications().SetListener(func() {
		select {
		case m.changed <- struct{}{}:
		default:
		}
	})

	s := spinner.New()
	s.Spinner = spinner.Dot
	m.spinner = s
	m.viewport = viewport.New(80, 20)
	return m
}

// Init starts the listeners and uploads the configured dataset
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		waitForEvent(m.events),
		waitForNotification(m.changed),
		tick(),
	}
	if m.opts.Dataset != "" {
		cmds = append(cmds, m.upload())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and key bindings
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case eventMsg:
		m.refresh()
		return m, waitForEvent(m.events)
	case notificationsMsg:
		return m, waitForNotification(m.changed)
	case actionDoneMsg:
		return m.handleActionDone(msg)
	case tickMsg:
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.viewport.Width = max(20, msg.Width-4)
	m.viewport.Height = max(5, msg.Height-(8+maxVisibleNotifications))
	m.ready = true
	m.refresh()
	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m.handleQuit()
	case "?", "h":
		m.showHelp = !m.showHelp
		return m, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(key[0] - '1')
		if idx < len(pipeline.Views) {
			_ = m.ctrl.SetView(pipeline.Views[idx])
			m.refresh()
		}
		return m, nil
	case "u":
		return m, m.upload()
	case "e":
		return m, m.start(pipeline.ActionBasicEDA, m.ctrl.RunBasicEDA)
	case "x":
		return m, m.start(pipeline.ActionExtendedEDA, m.ctrl.RunExtendedEDA)
	case "f":
		return m, m.start(pipeline.ActionFeatureStats, m.ctrl.RunFeatureStats)
	case "t":
		target := m.ctrl.Target()
		return m, m.start(pipeline.ActionTrain, func(ctx context.Context) error {
			return m.ctrl.Train(ctx, target)
		})
	case "s":
		return m, m.start(pipeline.ActionExplain, m.ctrl.Explain)
	case "a":
		a, b := m.ctrl.Target(), m.selectedColumn()
		return m, m.start(pipeline.ActionStatTest, func(ctx context.Context) error {
			return m.ctrl.RunStatTest(ctx, a, b)
		})
	case "g":
		kind, a, b := m.selectedPlotKind(), m.selectedColumn(), m.ctrl.Target()
		if kind != automl.PlotScatter {
			b = ""
		}
		return m, m.start(pipeline.ActionPlot, func(ctx context.Context) error {
			return m.ctrl.RenderPlot(ctx, kind, a, b)
		})
	case "v":
		m.plotKind = (m.plotKind + 1) % len(plotKinds)
		return m, nil
	case "p":
		_ = m.ctrl.ShowPreview()
		m.refresh()
		return m, nil
	case "tab":
		m.cycleTarget()
		return m, nil
	case "c":
		m.cycleColumn()
		return m, nil
	case "T":
		ToggleMode()
		m.refresh()
		return m, nil
	case "d":
		if list := m.ctrl.Notifications().List(); len(list) > 0 {
			m.ctrl.Notifications().Dismiss(list[0].ID)
		}
		return m, nil
	case "r":
		m.ctrl.Reset()
		m.column = 0
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleQuit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.Close()
	return m, tea.Quit
}

// Close detaches the dashboard from the controller
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.ctrl.Notifications().SetListener(nil)
}

func (m *Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	delete(m.inFlight, msg.action)
	if msg.action == pipeline.ActionUpload && msg.err == nil && m.opts.Target != "" {
		// a missing column leaves the target unset; train reports it
		_ = m.ctrl.SelectTarget(m.opts.Target)
	}
	m.refresh()
	return m, nil
}

// start runs a controller call unless the same action is still in flight.
// The mark is set here, not when the command runs, so a second key press
// arriving before the first command starts is dropped too.
func (m *Model) start(action pipeline.Action, call func(context.Context) error) tea.Cmd {
	if m.inFlight[action] || m.ctrl.Status(action) == pipeline.StatusPending {
		return nil
	}
	m.inFlight[action] = true
	return runAction(m.ctx, action, call)
}

func (m *Model) upload() tea.Cmd {
	path := m.opts.Dataset
	return m.start(pipeline.ActionUpload, func(ctx context.Context) error {
		return m.ctrl.UploadFile(ctx, path)
	})
}

func (m *Model) cycleTarget() {
	cols := m.ctrl.Schema().Columns
	if len(cols) == 0 {
		return
	}
	next := 0
	for i, c := range cols {
		if c == m.ctrl.Target() {
			next = (i + 1) % len(cols)
			break
		}
	}
	_ = m.ctrl.SelectTarget(cols[next])
	m.refresh()
}

func (m *Model) cycleColumn() {
	if n := len(m.ctrl.Schema().Columns); n > 0 {
		m.column = (m.column + 1) % n
	}
}

func (m *Model) selectedColumn() string {
	cols := m.ctrl.Schema().Columns
	if m.column < len(cols) {
		return cols[m.column]
	}
	return ""
}

func (m *Model) selectedPlotKind() automl.PlotKind {
	return plotKinds[m.plotKind]
}

func (m *Model) renderer() *renderer {
	mode := CurrentMode()
	return &renderer{styles: NewStyles(ThemeFor(mode)), mode: mode}
}

// refresh re-renders the active view into the viewport
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderer().content(m.ctrl.Snapshot()))
}

// View renders the dashboard
func (m *Model) View() string {
	if !m.ready {
		return "Initializing mlstudio..."
	}
	if m.quitting {
		return ""
	}

	r := m.renderer()
	snap := m.ctrl.Snapshot()

	title := r.styles.Title.Render("mlstudio")
	if snap.Busy {
		title += " " + m.spinner.View() + r.styles.Muted.Render(pendingActions(snap))
	}
	status := r.styles.Muted.Render(fmt.Sprintf("target: %s  column: %s  plot: %s  theme: %s",
		orNone(snap.Target), orNone(m.selectedColumn()), m.selectedPlotKind(), CurrentMode()))

	header := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", status)

	body := r.styles.Panel.Width(max(20, m.width-2)).Render(m.viewport.View())
	if m.showHelp {
		body = r.styles.Panel.Width(max(20, m.width-2)).Render(helpText(r))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		r.stepper(snap.Progress),
		r.tabs(snap.View),
		body,
		m.renderNotifications(r),
		r.styles.Muted.Render("u upload • e eda • x correlations • f features • t train • s shap • p preview • ? help • q quit"),
	)
}

func (m *Model) renderNotifications(r *renderer) string {
	list := m.ctrl.Notifications().List()
	if len(list) > maxVisibleNotifications {
		list = list[len(list)-maxVisibleNotifications:]
	}

	lines := make([]string, 0, maxVisibleNotifications)
	for _, n := range list {
		switch n.Kind {
		case notify.KindSuccess:
			lines = append(lines, r.styles.Success.Render(emoji.Prefix("success")+n.Message))
		case notify.KindError:
			lines = append(lines, r.styles.Error.Render(emoji.Prefix("error")+n.Message))
		default:
			lines = append(lines, r.styles.Info.Render(emoji.Prefix("info")+n.Message))
		}
	}
	for len(lines) < maxVisibleNotifications {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func pendingActions(snap pipeline.Snapshot) string {
	var pending []string
	for _, a := range pipeline.Actions {
		if snap.Status[a] == pipeline.StatusPending {
			pending = append(pending, string(a))
		}
	}
	return " " + strings.Join(pending, ", ")
}

func helpText(r *renderer) string {
	sections := [][2]string{
		{"1-9", "switch view"},
		{"u", "upload the dataset"},
		{"e / x / f", "EDA, correlations, feature statistics"},
		{"tab", "cycle the training target"},
		{"c", "cycle the comparison column"},
		{"a", "statistical test: target vs column"},
		{"g", "plot the column (scatter: column vs target)"},
		{"v", "cycle the plot kind: distribution, box, scatter"},
		{"t", "train models"},
		{"s", "explain the best model"},
		{"p", "show the preview rows"},
		{"d", "dismiss the oldest notification"},
		{"r", "reset the session"},
		{"T", "toggle dark/light theme"},
		{"↑↓ pgup pgdn", "scroll"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(r.styles.Header.Render(emoji.Prefix("help")+"Keys") + "\n\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "  %-14s %s\n", s[0], r.styles.Body.Render(s[1]))
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// Run starts the dashboard and blocks until the user quits
func Run(ctx context.Context, ctrl *pipeline.Controller, opts Options) error {
	model := NewModel(ctx, ctrl, opts)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
