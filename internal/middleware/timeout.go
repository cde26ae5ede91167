package middleware

import (
	"context"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a single request. Publish requests block on
// the Git store, so this needs headroom for a slow remote commit.
const DefaultRequestTimeout = 30 * time.Second

// Timeout enforces a deadline on each request. The handler sees a context
// that expires with the deadline, and http.TimeoutHandler writes the 503
// if the handler overruns.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			http.TimeoutHandler(next, timeout, "Request Timeout").ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
