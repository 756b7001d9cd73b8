package hook

import (
	"context"
	"net/http"
)

// route is a table entry: the public description plus the closures that bind
// and run the handler. Both closures are built at registration.
type route struct {
	Route

	// prepare binds the handler's parameters from an inbound request.
	prepare func(r *http.Request) (*call, error)
	// accept binds from a value supplied by a direct invocation.
	accept func(v any) (*call, error)
}

// call is a handler invocation with its parameters already bound.
type call struct {
	run func(ctx context.Context) error
	// wrapper is the Context handed to the handler, when it asked for one.
	wrapper *Context
}

// allows reports whether method is acceptable for the route. Any verb is
// accepted unless the binding reads a body, in which case only the verbs in
// allowHeader are.
func (rt *route) allows(method string) bool {
	if !rt.Binding.NeedsBody() {
		return true
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// allowHeader lists the verbs accepted by body-reading routes.
const allowHeader = "POST, PUT, PATCH, DELETE"

// RouteOption configures a route at registration time.
type RouteOption func(*route)

// WithRoute replaces the default "<Group>/<Name>" pattern. Group prefixes are
// not applied to explicit patterns.
func WithRoute(pattern string) RouteOption {
	return func(rt *route) {
		rt.Pattern = pattern
	}
}

// WithReceiverName scopes the route to a receiver registered on the router
// with WithReceiver. Requests are validated by it before binding.
func WithReceiverName(name string) RouteOption {
	return func(rt *route) {
		rt.Receiver = name
	}
}

// WithSummary sets a short description shown in the route manifest.
func WithSummary(s string) RouteOption {
	return func(rt *route) {
		rt.Summary = s
	}
}
