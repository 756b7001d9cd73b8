// Package hook is a webhook trigger dispatch engine. Handlers declare the
// parameter they want as a Go type, and the engine routes inbound callbacks to
// them, binds the payload into that type, runs the handler, and turns the
// outcome into an HTTP response.
//
// The core handler signature takes a single bound parameter:
//
//	type Handler[T any] func(ctx context.Context, in T) error
//
// Handlers are registered with package-level generic functions. A handler
// without an explicit route is reachable at "<Group>/<Name>":
//
//	r := hook.New(hook.WithReceiver("github", &receiver.HMAC{Secret: secret}))
//	orders := r.Group("Orders")
//	hook.Register(orders, "Import", importOrder)           // POST /Orders/Import
//	hook.Register(orders, "Push", onPush, hook.WithReceiverName("github"))
//
// The declared type selects the binding once, at registration:
//
//	*http.Request    the inbound request, body untouched
//	string           the body as UTF-8 text
//	io.Reader        the body as a re-readable stream
//	struct, *struct  the body decoded as JSON (nil when the body is empty)
//	hook.Query[T]    the query string mapped onto T's fields
//	*hook.Context    the request plus a settable response
//
// A handler that sets a response on its Context gets that response verbatim.
// A handler that returns an error (or panics) always yields 500 with an empty
// body, even if it set a response first. Routing misses are 404, a method
// other than POST, PUT, PATCH or DELETE against a handler that needs a body is
// 405, and receiver rejections are 401 unless the receiver says otherwise. A
// receiver that panics or cannot read the payload is a 500, not a rejection. Failure details never reach the caller; they
// are logged and handed to the FailureReporter.
//
// Router implements http.Handler. Invoke and InvokeInstruction run the same
// pipeline without a listener.
package hook
