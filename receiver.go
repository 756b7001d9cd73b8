package hook

import (
	"context"
	"net/http"
)

// Receiver validates requests for receiver-scoped routes before any payload
// is bound. It accepts by returning the request, possibly annotated (see
// WithEventName), and rejects by returning an error. A rejection that
// implements StatusCoder sets the response status; otherwise it is 401.
//
// A receiver that reads the body must leave a re-readable body in place.
type Receiver interface {
	Validate(ctx context.Context, r *http.Request) (*http.Request, error)
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(ctx context.Context, r *http.Request) (*http.Request, error)

// Validate calls f.
func (f ReceiverFunc) Validate(ctx context.Context, r *http.Request) (*http.Request, error) {
	return f(ctx, r)
}

// Reject returns a rejection carrying status.
func Reject(status int, message string) error {
	return Error(status, message)
}
