package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const (
	loggerKey  ctxKey = "logger"
	traceIDKey ctxKey = "traceID"
)

// With returns a new context that includes a logger with fields.
func With(ctx context.Context, fields ...any) context.Context {
	l := From(ctx).With(fields...)
	return context.WithValue(ctx, loggerKey, l)
}

// From returns the logger stored in context, or default if missing.
func From(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return LoggerWrapper()
	}
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}

// WithTraceID records the request trace id and adds it to the context logger.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	ctx = context.WithValue(ctx, traceIDKey, traceID)
	return With(ctx, "traceID", traceID)
}

// TraceID returns the trace id set by WithTraceID, or "".
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// Request returns l tagged with the request trace id, so components that
// were handed a logger at construction still correlate with the request.
func Request(ctx context.Context, l *slog.Logger) *slog.Logger {
	if l == nil {
		return From(ctx)
	}
	if id := TraceID(ctx); id != "" {
		return l.With("traceID", id)
	}
	return l
}
