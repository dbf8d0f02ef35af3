// Package alert is the status-message surface shared by the client
// components: every success, warning and failure a user should see goes
// through a Notifier.
package alert

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Alert struct {
	Level   Level
	Message string
	At      time.Time
}

type Notifier interface {
	Notify(a Alert)
}

func Info(n Notifier, msg string)    { send(n, LevelInfo, msg) }
func Success(n Notifier, msg string) { send(n, LevelSuccess, msg) }
func Warning(n Notifier, msg string) { send(n, LevelWarning, msg) }
func Error(n Notifier, msg string)   { send(n, LevelError, msg) }

func send(n Notifier, level Level, msg string) {
	if n == nil {
		return
	}
	n.Notify(Alert{Level: level, Message: msg, At: time.Now()})
}

// LogNotifier writes alerts to a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(a Alert) {
	var evt *zerolog.Event
	switch a.Level {
	case LevelError:
		evt = n.Logger.Error()
	case LevelWarning:
		evt = n.Logger.Warn()
	default:
		evt = n.Logger.Info()
	}
	evt.Str("alert", string(a.Level)).Msg(a.Message)
}

// WriterNotifier prints one line per alert, for terminals.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

var prefixes = map[Level]string{
	LevelInfo:    "[info]",
	LevelSuccess: "[ok]",
	LevelWarning: "[warn]",
	LevelError:   "[error]",
}

func (n *WriterNotifier) Notify(a Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	prefix, ok := prefixes[a.Level]
	if !ok {
		prefix = "[" + string(a.Level) + "]"
	}
	fmt.Fprintf(n.w, "%s %s\n", prefix, a.Message)
}

// Recorder keeps every alert in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *Recorder) Notify(a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

func (r *Recorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// Last returns the most recent alert, or false when none was recorded.
func (r *Recorder) Last() (Alert, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.alerts) == 0 {
		return Alert{}, false
	}
	return r.alerts[len(r.alerts)-1], true
}

// Multi fans an alert out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(a Alert) {
	for _, n := range m {
		if n != nil {
			n.Notify(a)
		}
	}
}
