package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const runIDKey contextKey = "run_id"

// WithRunID returns a context whose loggers tag every line with run_id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run id set by WithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

func extractContextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}

	fields := make(map[string]interface{})
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}
	if v := ctx.Value(runIDKey); v != nil {
		fields[string(runIDKey)] = v
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
