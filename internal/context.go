package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextAdminKey ctxKey = "admin"

// DefaultTimeout bounds outbound calls that have no configured timeout.
const DefaultTimeout = 10 * time.Second

// AdminFromContext returns the authenticated admin username, if any.
func AdminFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if name, ok := ctx.Value(ContextAdminKey).(string); ok {
		return name
	}
	return ""
}

func ContextWithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ContextAdminKey, username)
}

// WithTimeout returns a context with timeout, falling back to DefaultTimeout
// when duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = DefaultTimeout
	}
	return context.WithTimeout(ctx, duration)
}
