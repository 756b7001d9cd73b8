package hook

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
)

// Registrar is the interface accepted by the registration functions.
// Both *Router and *Group implement it.
type Registrar interface {
	addRoute(rt *route) error
	groupName() string
	defaultReceiver() string
	codecRegistry() *codecRegistry
}

func (r *Router) groupName() string             { return "" }
func (r *Router) defaultReceiver() string       { return "" }
func (r *Router) codecRegistry() *codecRegistry { return r.codecs }

// Register adds a handler reachable at DefaultPattern(group, name) unless
// WithRoute says otherwise. The handler's parameter type fixes its binding.
//
// Registration fails with ErrDuplicateRoute, ErrUnknownReceiver,
// ErrInvalidPattern or ErrUnsupportedParam. All handlers must be registered
// before the router serves requests.
func Register[T any](reg Registrar, name string, h Handler[T], opts ...RouteOption) error {
	t := reflect.TypeFor[T]()
	b, err := classifyParam(t)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}

	rt := newRoute(reg, name, t, b, opts)
	bind := newBinder[T](b, t, reg.codecRegistry())

	rt.prepare = func(r *http.Request) (*call, error) {
		in, c, err := bind(r)
		if err != nil {
			return nil, err
		}
		return &call{wrapper: c, run: func(ctx context.Context) error { return h(ctx, in) }}, nil
	}
	rt.accept = func(v any) (*call, error) {
		in, c, err := acceptValue(b, v, bind)
		if err != nil {
			return nil, err
		}
		return &call{wrapper: c, run: func(ctx context.Context) error { return h(ctx, in) }}, nil
	}

	return reg.addRoute(rt)
}

// RegisterWithParams is Register for a ParamsHandler. P must be a struct; it
// is filled from the query string with the same rules as Query.
func RegisterWithParams[T, P any](reg Registrar, name string, h ParamsHandler[T, P], opts ...RouteOption) error {
	t := reflect.TypeFor[T]()
	b, err := classifyParam(t)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	pt := reflect.TypeFor[P]()
	if err := checkQueryTarget(pt); err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}

	rt := newRoute(reg, name, t, b, opts)
	rt.ParamsType = pt
	bind := newBinder[T](b, t, reg.codecRegistry())

	bindParams := func(r *http.Request) (P, error) {
		var p P
		if r == nil {
			return p, nil
		}
		if err := bindQueryValues(&p, queryValues(r)); err != nil {
			return p, &BindError{Binding: BindQuery, Err: err}
		}
		return p, nil
	}

	rt.prepare = func(r *http.Request) (*call, error) {
		in, c, err := bind(r)
		if err != nil {
			return nil, err
		}
		p, err := bindParams(r)
		if err != nil {
			return nil, err
		}
		return &call{wrapper: c, run: func(ctx context.Context) error { return h(ctx, in, p) }}, nil
	}
	rt.accept = func(v any) (*call, error) {
		in, c, err := acceptValue(b, v, bind)
		if err != nil {
			return nil, err
		}
		req, _ := v.(*http.Request)
		p, err := bindParams(req)
		if err != nil {
			return nil, err
		}
		return &call{wrapper: c, run: func(ctx context.Context) error { return h(ctx, in, p) }}, nil
	}

	return reg.addRoute(rt)
}

func newRoute(reg Registrar, name string, t reflect.Type, b Binding, opts []RouteOption) *route {
	rt := &route{
		Route: Route{
			Group:     reg.groupName(),
			Name:      name,
			Binding:   b,
			ParamType: t,
			Receiver:  reg.defaultReceiver(),
		},
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.Pattern == "" {
		rt.Pattern = DefaultPattern(rt.Group, name)
	}
	return rt
}

// acceptValue turns a directly supplied value into the handler's parameter.
// A value of the declared type is used as is; a *http.Request is bound the
// same way an inbound request would be; nil is the zero value for record
// parameters.
func acceptValue[T any](b Binding, v any, bind binder[T]) (T, *Context, error) {
	var zero T
	switch x := v.(type) {
	case nil:
		if b == BindRequest || b == BindContext {
			return zero, nil, &BindError{Binding: b, Err: fmt.Errorf("%w: nil value", ErrBindValue)}
		}
		return zero, nil, nil
	case T:
		c, _ := any(x).(*Context)
		return x, c, nil
	case *http.Request:
		return bind(x)
	default:
		return zero, nil, &BindError{
			Binding: b,
			Err:     fmt.Errorf("%w: cannot use %T as %s", ErrBindValue, v, reflect.TypeFor[T]()),
		}
	}
}
