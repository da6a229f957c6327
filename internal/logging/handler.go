// Package logging builds the authd logger: JSON or text records that carry the service
// identity and OpenTelemetry trace context, with principal data masked before it is
// written.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// Redaction replaces the value of every sensitive attribute.
const Redaction = "***"

// defaultSensitive are attribute keys that hold credentials or personal data.
var defaultSensitive = []string{"name", "email", "phone", "ssn", "password", "session_id", "reset_token", "token"}

// Handler masks sensitive attributes at any group depth and stamps each record with the
// span it was logged under.
type Handler struct {
	next      slog.Handler
	sensitive map[string]struct{}
}

// NewHandler wraps next. With no keys the default credential and personal data keys are
// masked.
func NewHandler(next slog.Handler, keys ...string) *Handler {
	if len(keys) == 0 {
		keys = defaultSensitive
	}
	sensitive := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		sensitive[k] = struct{}{}
	}
	return &Handler{next: next, sensitive: sensitive}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.mask(a))
		return true
	})

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		out.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, out)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.mask(a)
	}
	return &Handler{next: h.next.WithAttrs(masked), sensitive: h.sensitive}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), sensitive: h.sensitive}
}

func (h *Handler) mask(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		group := v.Group()
		masked := make([]any, len(group))
		for i, ga := range group {
			masked[i] = h.mask(ga)
		}
		return slog.Group(a.Key, masked...)
	}
	if _, ok := h.sensitive[a.Key]; ok {
		return slog.String(a.Key, Redaction)
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// Setup creates the process logger. format is "json" or "text" (json when empty). A nil
// w writes to os.Stderr.
func Setup(service, version, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var base slog.Handler
	if format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	return slog.New(NewHandler(base)).With(
		slog.String("service", service),
		slog.String("version", version),
	)
}
