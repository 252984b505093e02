package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Options selects the handler built by InitWithOptions. Zero values fall
// back to the environment defaults used by Init.
type Options struct {
	Env    string
	Level  string
	Format string
	Output io.Writer
}

func Init(env string) {
	InitWithOptions(Options{Env: env})
}

func InitWithOptions(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		if opts.Env == "production" {
			format = "json"
		} else {
			format = "text"
		}
	}

	level := parseLevel(opts.Level)
	if opts.Level == "" {
		if opts.Env == "production" {
			level = slog.LevelInfo
		} else {
			level = slog.LevelDebug
		}
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
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

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}

// Discard returns a logger that drops everything, for tests and CLI
// commands that must keep stdout clean.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}
