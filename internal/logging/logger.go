package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger so handlers and services share one type
type Logger struct {
	*slog.Logger
}

// NewLogger creates a logger writing to stdout.
// Development uses a human-readable text handler at debug level,
// everything else gets JSON at info level.
func NewLogger(isDevelopment bool) *Logger {
	return newLogger(os.Stdout, isDevelopment)
}

func newLogger(w io.Writer, isDevelopment bool) *Logger {
	var handler slog.Handler
	if isDevelopment {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithFields returns a child logger with the given fields attached
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
