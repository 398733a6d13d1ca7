package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelFatal marks failures that compromise the monitored server's health.
// Logging at this level never exits the process.
const LevelFatal = slog.Level(12)

// Logger defines the interface for logging in healthbeacon.
// It provides standard logging levels and a mechanism to add structured context.
type Logger interface {
	// Debug logs a message at the debug level.
	Debug(msg string, args ...any)
	// Info logs a message at the info level.
	Info(msg string, args ...any)
	// Warn logs a message at the warning level.
	Warn(msg string, args ...any)
	// Error logs a message at the error level.
	Error(msg string, args ...any)
	// Fatal logs a message at the fatal level. It does not terminate the process.
	Fatal(msg string, args ...any)
	// With returns a new Logger with the given structured context added.
	With(args ...any) Logger
}

// Log is the global logger instance used throughout the application.
// It is initialized with a default JSON handler pointing to stdout.
var Log Logger = New(os.Stdout, slog.LevelInfo)

// ParseLevel maps "debug", "info", "warn", "error" and "fatal" to a slog level.
// Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "fatal":
		return LevelFatal
	default:
		return slog.LevelInfo
	}
}

// InitLogger initializes the global Log instance with the specified logging level.
// It uses a JSON handler and includes source file information in the output.
func InitLogger(level string) {
	Log = New(os.Stdout, ParseLevel(level))
}

// New builds a JSON Logger writing to w.
func New(w io.Writer, level slog.Level) Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   true,
		ReplaceAttr: replaceLevel,
	}
	return &wrapper{l: slog.New(slog.NewJSONHandler(w, opts))}
}

// replaceLevel renders LevelFatal as "FATAL" instead of "ERROR+4".
func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelFatal {
		a.Value = slog.StringValue("FATAL")
	}
	return a
}

type wrapper struct {
	l *slog.Logger
}

func (w *wrapper) Debug(msg string, args ...any) { w.l.Debug(msg, args...) }
func (w *wrapper) Info(msg string, args ...any)  { w.l.Info(msg, args...) }
func (w *wrapper) Warn(msg string, args ...any)  { w.l.Warn(msg, args...) }
func (w *wrapper) Error(msg string, args ...any) { w.l.Error(msg, args...) }
func (w *wrapper) Fatal(msg string, args ...any) {
	w.l.Log(context.Background(), LevelFatal, msg, args...)
}
func (w *wrapper) With(args ...any) Logger { return &wrapper{l: w.l.With(args...)} }
