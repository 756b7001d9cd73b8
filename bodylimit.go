package hook

import "net/http"

// BodyLimit returns middleware that caps delivery payloads at maxBytes, or at
// the matched route's entry in routes. A limit of zero or less leaves that
// delivery uncapped.
//
// The cap takes effect when the payload is read. On a route whose receiver
// verifies the body (receiver.HMAC reads it through ReadBody) that happens
// while authorizing; elsewhere it happens while binding. Both end the same
// way: an empty 500 whose cause wraps ErrBindBody. An oversized payload is
// never reported as a receiver rejection.
func BodyLimit(maxBytes int64, routes RouteOverrides[int64]) Middleware {
	overrides := routes.folded()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit := valueFor(overrides, r, maxBytes); limit > 0 && r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
