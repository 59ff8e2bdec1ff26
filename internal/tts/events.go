package tts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// EventLog appends one JSON object per line for every request outcome.
type EventLog struct {
	logger *log.Logger
	closer io.Closer
}

// NewEventLog writes events to w.
func NewEventLog(w io.Writer) *EventLog {
	return &EventLog{
		logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Formatter:       log.JSONFormatter,
			Level:           log.InfoLevel,
		}),
	}
}

// OpenEventLog appends events to the file at path, creating it if needed.
func OpenEventLog(path string) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open event log: %w", err)
	}
	el := NewEventLog(f)
	el.closer = f
	return el, nil
}

// Init records process start.
func (l *EventLog) Init(mode string, backend Backend) {
	if l == nil {
		return
	}
	l.logger.Info("init", "mode", mode, "backend", backend)
}

// Speak records a successful request.
func (l *EventLog) Speak(a *Artifact, voice string) {
	if l == nil {
		return
	}
	l.logger.Info("speak",
		"id", a.ID,
		"backend", a.Backend,
		"voice", voice,
		"chars", len(a.Text),
		"bytes", a.Size,
		"elapsed", a.Elapsed.Seconds(),
		"path", a.Path,
	)
}

// Error records a failed request.
func (l *EventLog) Error(backend string, err error) {
	if l == nil {
		return
	}
	l.logger.Error("error", "backend", backend, "code", ErrorCodeOf(err), "err", err.Error())
}

// Close closes the underlying file, if any.
func (l *EventLog) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
