package applog

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"time"
)

// Logger writes one JSON object per line. Every entry carries ts, level and
// component; callers add an event name and their own fields.
// A nil *Logger discards everything.
type Logger struct {
	component string
	loc       *time.Location
	out       *log.Logger
}

// New returns a Logger writing to stdout.
func New(component string, loc *time.Location) *Logger {
	return NewWriter(os.Stdout, component, loc)
}

// NewWriter returns a Logger writing to w.
func NewWriter(w io.Writer, component string, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{component: component, loc: loc, out: log.New(w, "", 0)}
}

// Nop returns a Logger that drops every entry.
func Nop() *Logger {
	return NewWriter(io.Discard, "", time.UTC)
}

// Info logs an informational event.
func (l *Logger) Info(event string, fields map[string]any) {
	l.write("info", event, nil, fields)
}

// Warn logs a recoverable problem.
func (l *Logger) Warn(event string, fields map[string]any) {
	l.write("warn", event, nil, fields)
}

// Error logs a failure with its error message.
func (l *Logger) Error(event string, err error, fields map[string]any) {
	l.write("error", event, err, fields)
}

func (l *Logger) write(level, event string, err error, fields map[string]any) {
	if l == nil {
		return
	}
	entry := make(map[string]any, len(fields)+5)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	entry["level"] = level
	entry["event"] = event
	if l.component != "" {
		entry["component"] = l.component
	}
	if err != nil {
		entry["error_message"] = err.Error()
	}

	b, mErr := json.Marshal(entry)
	if mErr != nil {
		log.Printf("failed to marshal log entry: %v", mErr)
		return
	}
	l.out.Println(string(b))
}
