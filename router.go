package hook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Router is the central type that holds the route table, receivers, and
// configuration. It implements http.Handler.
type Router struct {
	table      *table
	receivers  map[string]Receiver
	middleware []Middleware

	decoders []Decoder
	codecs   *codecRegistry

	logger   *slog.Logger
	tracer   SpanStarter
	reporter FailureReporter
	newID    func() string
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// FailureReporter receives every failed Result. It is the place to surface
// failure details that the HTTP response deliberately leaves out.
type FailureReporter func(ctx context.Context, res *Result)

// WithReceiver registers a named receiver for routes to reference with
// WithReceiverName or WithGroupReceiver.
func WithReceiver(name string, rcv Receiver) RouterOption {
	return func(r *Router) {
		if r.receivers == nil {
			r.receivers = make(map[string]Receiver)
		}
		r.receivers[name] = rcv
	}
}

// WithDecoder registers an additional decoder for record bodies, selected by
// the request's Content-Type.
func WithDecoder(dec Decoder) RouterOption {
	return func(r *Router) {
		r.decoders = append(r.decoders, dec)
	}
}

// WithLogger sets the logger used for dispatch diagnostics.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithFailureReporter sets a callback invoked with every failed Result.
func WithFailureReporter(fn FailureReporter) RouterOption {
	return func(r *Router) {
		r.reporter = fn
	}
}

// WithIDGenerator overrides how invocation ids are generated when the request
// carries no request id. Defaults to random UUIDs.
func WithIDGenerator(fn func() string) RouterOption {
	return func(r *Router) {
		r.newID = fn
	}
}

// SpanStarter is a tracing hook interface for creating spans per dispatch.
// See package otelhook for an OpenTelemetry implementation.
type SpanStarter interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func())
}

// WithTracer sets a tracing hook for the router.
func WithTracer(s SpanStarter) RouterOption {
	return func(r *Router) {
		r.tracer = s
	}
}

// New creates a new Router with the given options.
func New(opts ...RouterOption) *Router {
	r := &Router{
		table:  newTable(),
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.codecs = newCodecRegistry(r.decoders)
	return r
}

// Use adds middleware to the router. Middleware is applied in the order
// added and wraps the whole dispatch, so it sees every request including the
// ones that end in 404.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// ServeHTTP implements http.Handler. The matched route, if any, is attached
// to the request before middleware runs (see MatchedRoute).
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if rt, err := r.table.resolve(req.URL.Path); err == nil {
		req = SetValue(req, matchedRoute(rt.Route))
	}
	handler := http.Handler(http.HandlerFunc(r.serve))
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	handler.ServeHTTP(w, req)
}

func (r *Router) serve(w http.ResponseWriter, req *http.Request) {
	writeResult(w, r.Dispatch(req))
}

// ListenAndServe starts an HTTP server on the given address.
// It blocks until the context is cancelled, then shuts down gracefully.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	return Serve(ctx, addr, r)
}

// Serve runs an HTTP server for h until ctx is cancelled, then shuts it down
// gracefully. Hosts that mount the router next to other handlers use it with
// their own mux.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// addRoute validates the route's receiver and adds it to the table.
func (r *Router) addRoute(rt *route) error {
	if rt.Receiver != "" {
		if _, ok := r.receivers[rt.Receiver]; !ok {
			return fmt.Errorf("register %q: %w: %q", rt.Name, ErrUnknownReceiver, rt.Receiver)
		}
	}
	if err := r.table.add(rt); err != nil {
		return fmt.Errorf("register %q: %w", rt.Name, err)
	}
	return nil
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.table.routes))
	for i, rt := range r.table.routes {
		out[i] = rt.Route
	}
	return out
}

// Lookup returns the route a request path would dispatch to, or ErrNotFound.
func (r *Router) Lookup(path string) (Route, error) {
	rt, err := r.table.resolve(path)
	if err != nil {
		return Route{}, err
	}
	return rt.Route, nil
}
