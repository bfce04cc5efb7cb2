package telemetry

import (
	"context"

	"github.com/google/uuid"
)

type requestContextKey struct{}

// WithRequestID attaches a request id to the context for log correlation
// across the gateway and core.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestContextKey{}, requestID)
}

// RequestIDFromContext returns the request id, if one was attached.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestContextKey{}).(string)
	return id, ok && id != ""
}

// NewRequestID mints a fresh request id.
func NewRequestID() string {
	return uuid.NewString()
}
