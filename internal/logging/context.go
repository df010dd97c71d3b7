package logging

import (
	"context"
	"log/slog"

	"mp4get/internal/services"
)

const (
	// FieldRunID is the structured logging key for run identifiers.
	FieldRunID = "run_id"
	// FieldLinkID is the structured logging key for canonical video identifiers.
	FieldLinkID = "link_id"
	// FieldRequestID is the structured logging key for per-job correlation identifiers.
	FieldRequestID = "request_id"
)

// ContextFields extracts the standardized slog attributes stamped on the
// context by the runner and executor.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.LinkIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldLinkID, id))
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, id))
	}
	return fields
}

// WithContext returns a logger carrying the identifiers found on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, attr := range fields {
		args = append(args, attr)
	}
	return logger.With(args...)
}
