package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware caps the request context's lifetime. Cancellation is
// cooperative: handlers must watch ctx.Done(), typically through the
// upstream HTTP clients they call.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
