// Package requesttime captures one "now" per HTTP request so that audit
// timestamps and hand-off expiry within a request agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"intake/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
