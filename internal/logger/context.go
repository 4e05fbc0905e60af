package logger

import "context"

// contextKey is a private type to prevent collisions with other context keys.
type contextKey int

const (
	requestIDKey contextKey = iota
	tenantKey
)

// WithRequestID returns a new context with the given request ID stored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTenant returns a new context tagged with the tenant name for log records.
func WithTenant(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, tenantKey, name)
}

// Tenant returns the tenant name tagged on ctx, or "".
func Tenant(ctx context.Context) string {
	name, _ := ctx.Value(tenantKey).(string)
	return name
}
