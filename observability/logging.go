// Package observability wires structured logging, OpenTelemetry tracing,
// and Prometheus-exported metrics for the feriado service.
//
// Logging is built on log/slog. ConfigureLogging installs a process-wide
// default logger and returns it so components can receive it through their
// constructors. When tracing is enabled, TraceContextHandler stamps every
// record emitted under an active span with the trace and span IDs, which
// lets log lines be joined against exported spans.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// TraceContextHandler is a slog.Handler that adds the active span's trace
// context to every record. Records logged outside a span pass through
// unchanged.
type TraceContextHandler struct {
	handler slog.Handler
}

// NewTraceContextHandler wraps handler with trace context enrichment.
func NewTraceContextHandler(handler slog.Handler) *TraceContextHandler {
	return &TraceContextHandler{handler: handler}
}

// Handle adds trace_id and span_id attributes when ctx carries a valid span.
func (h *TraceContextHandler) Handle(ctx context.Context, record slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		record.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.handler.Handle(ctx, record)
}

// Enabled reports whether the wrapped handler handles records at the given level.
func (h *TraceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *TraceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *TraceContextHandler) WithGroup(name string) slog.Handler {
	return &TraceContextHandler{handler: h.handler.WithGroup(name)}
}

// ParseLevel maps a configuration string to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// ConfigureLogging builds the service logger and installs it as the slog
// default. With structured set, records are emitted as JSON; otherwise the
// text handler is used. With traceContext set, records carry trace and span
// IDs whenever a span is active.
func ConfigureLogging(level slog.Level, structured, traceContext bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if structured {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	if traceContext {
		handler = NewTraceContextHandler(handler)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
