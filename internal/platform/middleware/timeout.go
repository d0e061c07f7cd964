package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds each request's context. Mining a ledger block is the slowest
// request path, so the route-level value must leave room for the configured
// difficulty.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
