package hook

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for registration and routing.
var (
	ErrDuplicateRoute   = errors.New("duplicate route")
	ErrInvalidPattern   = errors.New("invalid route pattern")
	ErrUnknownReceiver  = errors.New("unknown receiver")
	ErrUnsupportedParam = errors.New("unsupported parameter type")
	ErrNotFound         = errors.New("route not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Sentinel errors for payload binding.
var (
	ErrBindQuery = errors.New("bind query")
	ErrBindBody  = errors.New("bind body")
	ErrBindValue = errors.New("bind value")
)

// ErrInvalidInstruction is returned for a direct invocation instruction that
// cannot be turned into a request.
var ErrInvalidInstruction = errors.New("invalid instruction")

// BindError reports a payload that could not be coerced into a handler's
// declared parameter. It is never confused with an error returned by the
// handler itself.
type BindError struct {
	Binding Binding
	Err     error
}

// Error returns the underlying binding error message.
func (e *BindError) Error() string { return e.Binding.String() + ": " + e.Err.Error() }

// Unwrap returns the underlying error.
func (e *BindError) Unwrap() error { return e.Err }

// PanicError is the failure recorded when a handler or receiver panics.
type PanicError struct {
	Value any
	Stack []byte
}

// Error describes the recovered panic value.
func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// StatusCoder is implemented by errors that carry an HTTP status code.
// Receivers use it to choose the status of a rejection.
type StatusCoder interface {
	StatusCode() int
}

// HTTPError is an error with an HTTP status code.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Error returns the error message.
func (e *HTTPError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int { return e.Status }

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// ErrorStatus extracts the HTTP status code from an error. Returns
// http.StatusInternalServerError if the error does not implement StatusCoder.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// rejectionStatus is the status for a receiver rejection: the receiver's own
// status when it supplies one, 401 otherwise.
func rejectionStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) && sc.StatusCode() >= 400 {
		return sc.StatusCode()
	}
	return http.StatusUnauthorized
}
