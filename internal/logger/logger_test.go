package logger

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		log     func(l *Logger)
		want    string
	}{
		{"debug hidden", false, func(l *Logger) { l.Debug("hidden") }, ""},
		{"info hidden", false, func(l *Logger) { l.Info("hidden") }, ""},
		{"debug shown", true, func(l *Logger) { l.Debug("shown %d", 1) }, "DEBUG [test] shown 1"},
		{"warn always", false, func(l *Logger) { l.Warn("careful") }, "WARN [test] careful"},
		{"error always", false, func(l *Logger) { l.Error("broken") }, "ERROR [test] broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter("test", Verbose(tt.verbose), &buf)
			tt.log(l)

			if tt.want == "" {
				if buf.Len() != 0 {
					t.Errorf("Expected no output, got %q", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Expected output to contain %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestLoggerLineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("", Verbose(true), &buf)

	l.InfoWithFields("request done", []Field{Action("train"), F("rows", 3), Error(errors.New("boom"))})

	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\.\d{3}\] INFO \[main\] request done \[action=train rows=3 error=boom\]\n$`)
	if !pattern.MatchString(buf.String()) {
		t.Errorf("Unexpected log line: %q", buf.String())
	}
}

func TestLoggerPercentWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", nil, &buf)

	l.Warn("100% done")

	if !strings.Contains(buf.String(), "100% done") {
		t.Errorf("Expected literal message, got %q", buf.String())
	}
}

func TestWithComponentSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("base", nil, &buf)
	child := base.WithComponent("child")

	child.Error("x")

	if !strings.Contains(buf.String(), "[child] x") {
		t.Errorf("Expected child component, got %q", buf.String())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Error("ignored")
	l.DebugWithFields("ignored", nil)
	if l.WithComponent("x") != nil {
		t.Error("Expected nil child logger")
	}
}

func TestLevelString(t *testing.T) {
	tests := map[Level]string{LevelDebug: "DEBUG", LevelInfo: "INFO", LevelWarn: "WARN", LevelError: "ERROR"}
	for level, want := range tests {
		if got := level.String(); got != want {
			t.Errorf("Expected %s, got %s", want, got)
		}
	}
}

func TestVerboseCheckerIsConsultedPerLine(t *testing.T) {
	var buf bytes.Buffer
	checker := &toggle{}
	l := NewWithWriter("test", checker, &buf)

	l.Info("first")
	checker.on = true
	l.Info("second")

	if strings.Contains(buf.String(), "first") || !strings.Contains(buf.String(), "second") {
		t.Errorf("Expected only the line logged while verbose, got %q", buf.String())
	}
}

type toggle struct{ on bool }

func (t *toggle) IsVerbose() bool { return t.on }
