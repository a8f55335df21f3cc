package middleware

import (
	"context"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyRequestID ctxKey = "req_id"
	ctxKeyHTMX      ctxKey = "htmx"
	ctxKeySession   ctxKey = "session"
	ctxKeyLocaleFB  ctxKey = "locale_fallback"
)

// WithRequestID stores request id in context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestID gets request id from context
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRequestID).(string)
	return v, ok
}

// WithHTMX stores htmx request metadata
func WithHTMX(ctx context.Context, info HTMXInfo) context.Context {
	return context.WithValue(ctx, ctxKeyHTMX, info)
}

// HTMXFromContext returns htmx metadata; zero value when absent
func HTMXFromContext(ctx context.Context) HTMXInfo {
	v, _ := ctx.Value(ctxKeyHTMX).(HTMXInfo)
	return v
}

// IsHTMX returns whether this is an htmx request
func IsHTMX(ctx context.Context) bool {
	return HTMXFromContext(ctx).IsHTMX
}
