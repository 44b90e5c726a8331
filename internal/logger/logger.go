package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// VerboseChecker reports whether debug and info lines are wanted
type VerboseChecker interface {
	IsVerbose() bool
}

// Verbose is a VerboseChecker with a fixed answer
type Verbose bool

// IsVerbose implements VerboseChecker
func (v Verbose) IsVerbose() bool { return bool(v) }

// Logger writes component-tagged lines:
//
//	[15:04:05.000] LEVEL [component] message [key=value ...]
//
// Debug and Info are dropped unless the checker reports verbose. A nil *Logger discards everything.
type Logger struct {
	component string
	verbose   VerboseChecker
	out       *sink
}

// sink is the writer shared by a logger and its component children
type sink struct {
	mu sync.Mutex
	w  io.Writer
}

// Field is a key=value pair appended to a line
type Field struct {
	Key   string
	Value interface{}
}

// New creates a logger writing to stderr
func New(component string, verbose VerboseChecker) *Logger {
	return NewWithWriter(component, verbose, os.Stderr)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(component string, verbose VerboseChecker, w io.Writer) *Logger {
	if w == nil {
		w = io.Discard
	}
	return &Logger{component: component, verbose: verbose, out: &sink{w: w}}
}

// WithComponent returns a logger tagged with component sharing the same output
func (l *Logger) WithComponent(component string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{component: component, verbose: l.verbose, out: l.out}
}

func (l *Logger) enabled(level Level) bool {
	if l == nil {
		return false
	}
	if level >= LevelWarn {
		return true
	}
	return l.verbose != nil && l.verbose.IsVerbose()
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, nil, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log(LevelInfo, msg, nil, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log(LevelWarn, msg, nil, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, nil, args) }

func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	l.log(LevelDebug, msg, fields, args)
}

func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	l.log(LevelInfo, msg, fields, args)
}

func (l *Logger) WarnWithFields(msg string, fields []Field, args ...interface{}) {
	l.log(LevelWarn, msg, fields, args)
}

func (l *Logger) ErrorWithFields(msg string, fields []Field, args ...interface{}) {
	l.log(LevelError, msg, fields, args)
}

func (l *Logger) log(level Level, msg string, fields []Field, args []interface{}) {
	if !l.enabled(level) {
		return
	}

	// messages without args are printed literally so a stray % survives
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	component := l.component
	if component == "" {
		component = "main"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s [%s] %s", time.Now().Format("15:04:05.000"), level, component, msg)
	if len(fields) > 0 {
		b.WriteString(" [")
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%v", f.Key, f.Value)
		}
		b.WriteByte(']')
	}
	b.WriteByte('\n')

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	_, _ = io.WriteString(l.out.w, b.String())
}

// F builds an arbitrary field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d.Round(time.Millisecond)}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

func Action(name string) Field {
	return Field{Key: "action", Value: name}
}

func RequestID(id string) Field {
	return Field{Key: "request_id", Value: id}
}
