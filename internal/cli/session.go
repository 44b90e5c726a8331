package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/yildizm/mlstudio/internal/automl"
	"github.com/yildizm/mlstudio/internal/clock"
	"github.com/yildizm/mlstudio/internal/config"
	"github.com/yildizm/mlstudio/internal/emoji"
	"github.com/yildizm/mlstudio/internal/history"
	"github.com/yildizm/mlstudio/internal/logger"
	"github.com/yildizm/mlstudio/internal/notify"
	"github.com/yildizm/mlstudio/internal/pipeline"
)

// session wires a controller to the configured service and history store
type session struct {
	cfg   *config.Config
	log   *logger.Logger
	ctrl  *pipeline.Controller
	store *history.Store
}

// newSession builds the controller stack. Notifications are echoed to stderr
// when echo is true and enabled in the configuration.
func newSession(cfg *config.Config, stderr io.Writer, echo bool) (*session, error) {
	log := logger.NewWithWriter("mlstudio", logger.Verbose(cfg.Output.Verbose), stderr)

	client, err := automl.New(cfg.ClientConfig(), automl.WithLogger(log.WithComponent("automl")))
	if err != nil {
		return nil, fmt.Errorf("failed to create service client: %w", err)
	}

	s := &session{cfg: cfg, log: log}
	opts := []pipeline.Option{pipeline.WithLogger(log.WithComponent("pipeline"))}

	if cfg.History.Enabled {
		store, err := history.Open(config.ExpandPath(cfg.History.Path))
		if err != nil {
			// history is best effort; the pipeline still runs without it
			log.WarnWithFields("run history disabled", []logger.Field{logger.Error(err)})
		} else {
			s.store = store
			opts = append(opts, pipeline.WithRecorder(store))
		}
	}

	queue := notify.NewQueue(clock.Real(), cfg.Notifications.TTL)
	if echo && cfg.Notifications.Echo {
		queue.SetListener(echoNotifications(queue, stderr))
	}

	s.ctrl = pipeline.New(client, queue, opts...)
	return s, nil
}

func (s *session) Close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn("failed to close history: %v", err)
	}
}

// echoNotifications returns a queue listener that prints each notification once
func echoNotifications(q *notify.Queue, w io.Writer) func() {
	var (
		mu     sync.Mutex
		lastID uint64
	)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		for _, n := range q.List() {
			if n.ID <= lastID {
				continue
			}
			lastID = n.ID
			fmt.Fprintf(w, "%s%s\n", notificationPrefix(n.Kind), n.Message)
		}
	}
}

func notificationPrefix(kind notify.Kind) string {
	switch kind {
	case notify.KindSuccess:
		return emoji.Prefix("success")
	case notify.KindError:
		return emoji.Prefix("error")
	default:
		return emoji.Prefix("info")
	}
}

// useColor resolves the configured color mode against the output stream
func useColor(cfg *config.Config, w io.Writer) bool {
	switch cfg.Output.ColorMode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
