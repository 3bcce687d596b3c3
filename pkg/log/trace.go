package log

import (
	"context"

	"github.com/google/uuid"
)

const traceField = "trace_id"

type traceKey struct{}

// WithTraceID stores id in ctx. An empty id generates a fresh one.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, traceKey{}, id)
}

// TraceID returns the id stored by WithTraceID, or "".
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
