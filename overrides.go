package hook

import "net/http"

// RouteOverrides maps route patterns to values that replace a middleware's
// default for those routes. Patterns match the way dispatch does: case and
// surrounding slashes are ignored.
type RouteOverrides[T any] map[string]T

func (o RouteOverrides[T]) folded() map[string]T {
	out := make(map[string]T, len(o))
	for pattern, v := range o {
		out[routeKey(pattern)] = v
	}
	return out
}

// overrideFor returns the value for the request's matched route, if one is
// configured.
func overrideFor[T any](folded map[string]T, r *http.Request) (string, T, bool) {
	var zero T
	if len(folded) == 0 {
		return "", zero, false
	}
	rt, ok := MatchedRoute(r)
	if !ok {
		return "", zero, false
	}
	key := routeKey(rt.Pattern)
	v, ok := folded[key]
	return key, v, ok
}

func valueFor[T any](folded map[string]T, r *http.Request, def T) T {
	if _, v, ok := overrideFor(folded, r); ok {
		return v
	}
	return def
}

type matchedRoute Route

// MatchedRoute returns the route r resolves to. The Router sets it before its
// middleware runs, so middleware can apply per-route policy. It reports false
// for requests that match no route.
func MatchedRoute(r *http.Request) (Route, bool) {
	rt, ok := GetValue[matchedRoute](r.Context())
	return Route(rt), ok
}
