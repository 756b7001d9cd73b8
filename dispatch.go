package hook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Dispatch runs one inbound request through the pipeline:
//
//	routing -> authorizing -> binding -> invoking -> resolving -> done
//
// Any stage may end the dispatch in a failed state instead. Authorizing only
// happens for receiver-scoped routes. Nothing is retried. The returned Result
// is the only record of the dispatch; the router keeps no state about it.
func (r *Router) Dispatch(req *http.Request) *Result {
	res := &Result{Method: req.Method, Path: req.URL.Path}
	ctx, end := r.begin(req.Context(), res, GetRequestID(req))
	defer end()
	req = req.WithContext(ctx)

	rt, err := r.table.resolve(req.URL.Path)
	if err != nil {
		return r.finish(ctx, res.fail(StageRouting, KindNotFound, http.StatusNotFound, err))
	}
	res.Route = routeRef(rt)

	if !rt.allows(req.Method) {
		return r.finish(ctx, methodNotAllowed(res, rt, req.Method))
	}

	req, err = r.authorize(ctx, rt, req)
	if err != nil {
		return r.finish(ctx, rejected(res, err))
	}

	c, err := rt.prepare(req)
	if err != nil {
		return r.finish(ctx, res.fail(StageBinding, KindInternal, http.StatusInternalServerError, err))
	}

	return r.finish(ctx, resolve(res, c.wrapper, invoke(req.Context(), c)))
}

// begin assigns the invocation id and opens the dispatch span.
func (r *Router) begin(ctx context.Context, res *Result, requestID string) (context.Context, func()) {
	res.InvocationID = requestID
	if res.InvocationID == "" {
		res.InvocationID = r.newID()
	}
	ctx = context.WithValue(ctx, contextKey[invocationID]{}, invocationID(res.InvocationID))

	if r.tracer == nil {
		return ctx, func() {}
	}
	attrs := map[string]string{
		"hook.invocation_id": res.InvocationID,
		"hook.path":          res.Path,
	}
	if res.Method != "" {
		attrs["http.request.method"] = res.Method
	}
	return r.tracer.StartSpan(ctx, "hook.dispatch", attrs)
}

func methodNotAllowed(res *Result, rt *route, method string) *Result {
	err := fmt.Errorf("%w: %s on %q (%s binding reads the body)", ErrMethodNotAllowed, method, rt.Pattern, rt.Binding)
	res.fail(StageRouting, KindMethodNotAllowed, http.StatusMethodNotAllowed, err)
	res.Header = http.Header{"Allow": []string{allowHeader}}
	return res
}

// authorize asks the route's receiver for a verdict. Routes without a
// receiver pass through untouched. A receiver panic comes back as a
// *PanicError.
func (r *Router) authorize(ctx context.Context, rt *route, req *http.Request) (accepted *http.Request, err error) {
	if rt.Receiver == "" {
		return req, nil
	}
	rcv, ok := r.receivers[rt.Receiver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReceiver, rt.Receiver)
	}

	defer func() {
		if rec := recover(); rec != nil {
			accepted, err = nil, &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	accepted, err = rcv.Validate(ctx, req)
	if err != nil {
		return nil, err
	}
	if accepted == nil {
		return req, nil
	}
	return accepted, nil
}

// rejected records a failed authorization. A receiver that panicked or could
// not read the payload is an internal failure (500); anything else it returns
// is a rejection.
func rejected(res *Result, err error) *Result {
	var pe *PanicError
	if errors.As(err, &pe) || errors.Is(err, ErrBindBody) {
		return res.fail(StageAuthorizing, KindInternal, http.StatusInternalServerError, err)
	}
	return res.fail(StageAuthorizing, KindUnauthorized, rejectionStatus(err), err)
}

// invoke runs the bound handler synchronously. A panic counts as a handler
// failure like any returned error.
func invoke(ctx context.Context, c *call) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return c.run(ctx)
}

// finish logs the outcome, reports failures, and notifies a per-call observer.
func (r *Router) finish(ctx context.Context, res *Result) *Result {
	attrs := []slog.Attr{
		slog.String("invocation_id", res.InvocationID),
		slog.String("path", res.Path),
		slog.Int("status", res.Status),
	}
	if res.Method != "" {
		attrs = append(attrs, slog.String("method", res.Method))
	}
	if res.Route != nil {
		attrs = append(attrs, slog.String("route", res.Route.Pattern))
	}

	if res.Failed() {
		attrs = append(attrs,
			slog.String("kind", res.Kind.String()),
			slog.String("stage", res.Stage.String()),
			slog.Any("err", res.Cause),
		)
		level := slog.LevelWarn
		if res.Kind == KindInternal {
			level = slog.LevelError
		}
		var pe *PanicError
		if errors.As(res.Cause, &pe) {
			attrs = append(attrs, slog.String("stack", string(pe.Stack)))
		}
		r.logger.LogAttrs(ctx, level, "webhook dispatch failed", attrs...)
		if r.reporter != nil {
			r.reporter(ctx, res)
		}
	} else {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "webhook dispatched", attrs...)
	}

	if fn := observer(ctx); fn != nil {
		fn(res)
	}
	return res
}

func routeRef(rt *route) *Route {
	info := rt.Route
	return &info
}
