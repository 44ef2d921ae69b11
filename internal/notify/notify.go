// Package notify shows short-lived toast notifications to the user.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/wolfman30/agenda/pkg/logging"
)

// Level is the toast style.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
	Warning Level = "warning"
)

// Notifier displays a message to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// LogNotifier writes toasts to the structured log.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(level Level, message string) {
	switch level {
	case Error:
		n.logger.Error(message, "toast", string(level))
	case Warning:
		n.logger.Warn(message, "toast", string(level))
	default:
		n.logger.Info(message, "toast", string(level))
	}
}

var prefixes = map[Level]string{
	Success: "✓",
	Error:   "✗",
	Info:    "i",
	Warning: "!",
}

// WriterNotifier prints one line per toast, e.g. to stderr in the CLI.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(level Level, message string) {
	prefix, ok := prefixes[level]
	if !ok {
		prefix = "-"
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "%s %s\n", prefix, message)
}

// Toast is a recorded notification.
type Toast struct {
	Level   Level
	Message string
}

// Recorder keeps every toast in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Message: message})
}

// Toasts returns a copy of what was recorded so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}
