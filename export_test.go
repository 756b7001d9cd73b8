package hook

import "reflect"

// Test-only exports for internal functions.
var (
	RouteKey = routeKey
)

// ClassifyParam exposes the binding classification for a type.
func ClassifyParam(t reflect.Type) (Binding, error) {
	return classifyParam(t)
}

// AllowHeader is the Allow header sent with 405 responses.
const AllowHeader = allowHeader
