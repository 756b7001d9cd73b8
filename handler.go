package hook

import (
	"context"
	"net/http"
)

// Handler is the core webhook handler signature. The type of in selects how
// the request is bound; see Binding. Returning an error fails the invocation
// with 500 regardless of any response set on a Context.
type Handler[T any] func(ctx context.Context, in T) error

// ParamsHandler receives a payload plus a second parameter bound from the
// query string, for handlers that want values from both.
type ParamsHandler[T, P any] func(ctx context.Context, in T, params P) error

// ContextHandler is a handler that controls its own response.
type ContextHandler = Handler[*Context]

// RequestHandler is a handler that reads the raw inbound request.
type RequestHandler = Handler[*http.Request]
