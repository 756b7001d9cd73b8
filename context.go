package hook

import (
	"context"
	"net/http"
)

// Context is the binding target for handlers that need full control over the
// HTTP response. It exposes the inbound request and a response slot that
// starts out empty.
//
// Only the handler of the current invocation writes the slot; the engine reads
// it once the handler returns. If the handler also returns an error the slot
// is ignored.
type Context struct {
	Request *http.Request

	response *Response
}

// NewContext wraps r with an empty response slot.
func NewContext(r *http.Request) *Context {
	return &Context{Request: r}
}

// SetResponse sets the response to send. A later call replaces an earlier one.
func (c *Context) SetResponse(resp *Response) {
	c.response = resp
}

// Respond is shorthand for SetResponse with a status and body.
func (c *Context) Respond(status int, body []byte) {
	c.SetResponse(&Response{Status: status, Body: body})
}

// Response returns the response set by the handler, or nil.
func (c *Context) Response() *Response {
	return c.response
}

type contextKey[T any] struct{}

// SetValue stores a typed value in the request context. For use in receivers
// and middleware.
func SetValue[T any](r *http.Request, val T) *http.Request {
	ctx := context.WithValue(r.Context(), contextKey[T]{}, val)
	return r.WithContext(ctx)
}

// GetValue retrieves a typed value from the request context. For use in handlers.
func GetValue[T any](ctx context.Context) (T, bool) {
	val, ok := ctx.Value(contextKey[T]{}).(T)
	return val, ok
}

type eventName string

// WithEventName annotates r with the event name a receiver extracted from the
// delivery (for example the X-GitHub-Event header).
func WithEventName(r *http.Request, name string) *http.Request {
	return SetValue(r, eventName(name))
}

// EventName returns the event name attached by the route's receiver, or "".
func EventName(ctx context.Context) string {
	name, _ := GetValue[eventName](ctx)
	return string(name)
}

type invocationID string

// InvocationID returns the id of the dispatch running on ctx, or "".
func InvocationID(ctx context.Context) string {
	id, _ := GetValue[invocationID](ctx)
	return string(id)
}

type resultObserver func(*Result)

// ObserveResult returns a context that makes the dispatch running on it call
// fn with its final Result. Use it to watch a single request without keeping
// state on the router. Observers stack: one already on ctx is called first.
func ObserveResult(ctx context.Context, fn func(*Result)) context.Context {
	if prev := observer(ctx); prev != nil {
		inner := fn
		fn = func(res *Result) {
			prev(res)
			inner(res)
		}
	}
	return context.WithValue(ctx, contextKey[resultObserver]{}, resultObserver(fn))
}

func observer(ctx context.Context) resultObserver {
	fn, _ := GetValue[resultObserver](ctx)
	return fn
}
