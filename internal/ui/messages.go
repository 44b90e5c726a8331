package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/mlstudio/internal/pipeline"
)

// eventMsg carries a controller status transition into the update loop
type eventMsg pipeline.Event

// actionDoneMsg is returned when a controller call started by a key press returns
type actionDoneMsg struct {
	action pipeline.Action
	err    error
}

// notificationsMsg signals that the notification queue changed
type notificationsMsg struct{}

// tickMsg redraws notification ages
type tickMsg time.Time

// runAction performs a controller call off the update loop
func runAction(ctx context.Context, action pipeline.Action, call func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: call(ctx)}
	}
}

// waitForEvent blocks until the controller publishes the next event
func waitForEvent(events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

// waitForNotification blocks until the notification queue changes
func waitForNotification(changed <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changed; !ok {
			return nil
		}
		return notificationsMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
