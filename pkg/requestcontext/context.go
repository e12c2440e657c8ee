// Package requestcontext carries request-scoped values that services read
// without importing net/http.
package requestcontext

import (
	"context"
	"time"
)

type requestIDKey struct{}
type requestTimeKey struct{}

// RequestID returns the ID set by the request ID middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the time pinned for this request. Contexts that did not pass
// through the HTTP chain get the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
