package hook

import (
	"log/slog"
	"net/http"
	"time"
)

// statusWriter records the status and size of what was written, for
// deliveries that never reach the dispatcher.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Unwrap returns the underlying ResponseWriter (supports http.ResponseController).
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Logger returns middleware that writes one line per delivery carrying the
// dispatch outcome: invocation id, route, receiver, kind and stage. A delivery
// stopped before dispatch (by RateLimit, say) is logged with dispatched=false
// and the status that was written. Failure causes stay in the router's own
// log so they are not repeated here.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			var res *Result
			r = r.WithContext(ObserveResult(r.Context(), func(got *Result) { res = got }))
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Int("size", sw.size),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote", r.RemoteAddr),
			}
			if id := GetRequestID(r); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			attrs = append(attrs, outcomeAttrs(res)...)

			logger.LogAttrs(r.Context(), slog.LevelInfo, "webhook delivery", attrs...)
		})
	}
}

func outcomeAttrs(res *Result) []slog.Attr {
	if res == nil {
		return []slog.Attr{slog.Bool("dispatched", false)}
	}
	attrs := []slog.Attr{
		slog.Bool("dispatched", true),
		slog.String("invocation_id", res.InvocationID),
		slog.String("kind", res.Kind.String()),
		slog.String("stage", res.Stage.String()),
	}
	if res.Route != nil {
		attrs = append(attrs, slog.String("route", res.Route.Pattern))
		if res.Route.Receiver != "" {
			attrs = append(attrs, slog.String("receiver", res.Route.Receiver))
		}
	}
	return attrs
}
