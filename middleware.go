package hook

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Middleware wraps the router's HTTP serving. It sees every request,
// including ones that match no route, but not direct invocations.
type Middleware func(next http.Handler) http.Handler

// Recovery returns middleware that turns a panic in the middleware it wraps
// into an empty 500. Receiver and handler panics never reach it: the
// dispatcher records those as failed Results. The panic is logged to logger
// (slog.Default() when nil) with the delivery's request id and matched route.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				attrs := []slog.Attr{
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				}
				if id := GetRequestID(r); id != "" {
					attrs = append(attrs, slog.String("request_id", id))
				}
				if rt, ok := MatchedRoute(r); ok {
					attrs = append(attrs, slog.String("route", rt.Pattern))
				}
				logger.LogAttrs(r.Context(), slog.LevelError, "webhook middleware panic", attrs...)
				w.WriteHeader(http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
