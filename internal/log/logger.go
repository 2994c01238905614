// Package log builds the slog loggers used across the service and carries
// the request correlation id through context.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Acurioustractor/palm-island-repository/internal/config"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// NewLogger creates a logger based on configuration, writing to stdout.
func NewLogger(cfg config.AppConfig) *slog.Logger {
	return newLogger(os.Stdout, cfg.LogFormat(), cfg.LogLevel(), true)
}

// NewLoggerWithWriter creates a logger that writes to w without colour.
func NewLoggerWithWriter(w io.Writer, format config.LogFormat, level string) *slog.Logger {
	return newLogger(w, format, level, false)
}

// Configure creates a logger from configuration and installs it as the
// slog default.
func Configure(cfg config.AppConfig) *slog.Logger {
	logger := NewLogger(cfg)
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLogger(w io.Writer, format config.LogFormat, level string, colour bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch format {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = newTerminalHandler(w, opts, colour)
	}
	return slog.New(contextHandler{Handler: handler})
}

// ParseLevel maps a level name onto a slog level. Unknown names mean INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// contextHandler stamps records logged with a *Context method with the
// correlation id found in the context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationID(ctx); id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}
