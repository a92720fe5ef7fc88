package logger

import (
	"context"
	"log/slog"

	"github.com/campusnav/campus-navigator-go/internal/ctxutil"
)

// ContextHandler adds the tracing values from ctxutil (request_id,
// client_ip, dataset_version) to every record logged with a context.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := ctxutil.Attrs(ctx)
	for i := 0; i+1 < len(attrs); i += 2 {
		r.AddAttrs(slog.String(attrs[i], attrs[i+1]))
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
