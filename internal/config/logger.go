package config

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings for the file sink.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// ParseLevel maps a config log level to a slog level. Unknown values are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a JSON logger writing to w.
func NewLogger(w io.Writer, level string) *slog.Logger {
	logLevel := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug, // Add source file/line in debug mode
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetupLogger configures the global logger from the app settings. Logs go to
// a rotated file when app.log_file is set, otherwise to console. A nil console
// discards output, for full-screen UIs and stdio protocols that own stdout.
func SetupLogger(app AppConfig, console io.Writer) *slog.Logger {
	w := console
	if app.LogFile != "" {
		w = rotatingFile(app.LogFile)
	}
	if w == nil {
		w = io.Discard
	}
	logger := NewLogger(w, app.LogLevel)
	slog.SetDefault(logger)
	return logger
}

func rotatingFile(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}
}

// LoggerFromContext retrieves a logger from context or returns the default logger
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// ContextWithLogger adds a logger to the context
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

type contextKey string

const loggerKey contextKey = "logger"
