package hook

import (
	"context"
	"net/http"
	"time"
)

// Timeout returns middleware that puts a deadline of d, or the matched
// route's entry in routes, on each delivery. A duration of zero or less
// leaves that delivery without one.
//
// The deadline reaches receivers through the request and handlers through
// their ctx. The dispatcher does not abandon a handler that ignores it; one
// that returns ctx.Err() fails the delivery with an empty 500 like any other
// handler error.
func Timeout(d time.Duration, routes RouteOverrides[time.Duration]) Middleware {
	overrides := routes.folded()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := valueFor(overrides, r, d)
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
