// Package logger provides the structured logger of cl-bindgen. Everything it
// writes goes to stderr so generated bindings on stdout stay clean.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/hargabyte/cl-bindgen/internal/emit"
)

var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

// LogLevel represents the logging level
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config holds logger configuration
type Config struct {
	Level  LogLevel
	Format string // "text" or "json"
	Output io.Writer
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:  LevelWarn,
		Format: "text",
		Output: os.Stderr,
	}
}

// Init replaces the global logger.
func Init(cfg Config) {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: toSlogLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	defaultLogger = slog.New(handler)
}

// LevelFromVerbosity maps the count of -v flags to a level.
func LevelFromVerbosity(n int) LogLevel {
	switch {
	case n <= 0:
		return LevelWarn
	case n == 1:
		return LevelInfo
	default:
		return LevelDebug
	}
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the global logger.
func L() *slog.Logger {
	return defaultLogger
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// With returns a new logger with the given attributes
func With(args ...any) *slog.Logger {
	return defaultLogger.With(args...)
}

// LogWarning logs a pass warning with its location.
func LogWarning(w emit.Warning) {
	Warn(w.Message,
		"kind", string(w.Kind),
		"location", w.Loc.String())
}

// LogFileProcessing logs file processing start
func LogFileProcessing(file string) {
	Info("Processing file", "file", file)
}

// LogFileComplete logs the end of a pass.
func LogFileComplete(file string, bytes int, warnings int, cached bool) {
	Info("Processed file",
		"file", file,
		"bytes", bytes,
		"warnings", warnings,
		"cached", cached)
}

// LogIgnoredArguments logs compiler arguments that have no effect.
func LogIgnoredArguments(file string, args []string) {
	if len(args) == 0 {
		return
	}
	Debug("Ignoring compiler arguments", "file", file, "args", args)
}

// LogJobCommitted logs a finished job.
func LogJobCommitted(output string, files int) {
	Info("Wrote bindings", "output", output, "files", files)
}
