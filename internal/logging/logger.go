// Package logging provides structured logging configuration using log/slog.
//
// Each import run carries an id on its context, stored under chi's request-id
// key so the same correlation helper works whether the run was started from
// the CLI or from an HTTP handler behind chi's RequestID middleware.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(New(os.Stderr, level, format))
}

// New builds a logger writing to w. Setup uses it for the process default;
// tests use it to capture output.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
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

// ContextWithRunID stores an import run id on ctx.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, middleware.RequestIDKey, runID)
}

// RunIDFromContext returns the run id stored on ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// FromContext returns the default logger enriched with the run id, if any.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Info("batch flushed", "batch", n)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if runID := RunIDFromContext(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}

	return logger
}

// WithFields returns a context logger with additional structured fields.
//
// Usage:
//
//	runLogger := logging.WithFields(ctx, "file", path, "batch_size", size)
//	runLogger.Info("import started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
