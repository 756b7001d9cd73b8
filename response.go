package hook

import "net/http"

// Response is an explicit HTTP response chosen by a handler through its Context.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse returns a response with the given status and body.
func NewResponse(status int, body string) *Response {
	return &Response{Status: status, Body: []byte(body)}
}

// SetHeader sets a response header, allocating the header map if needed.
func (r *Response) SetHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}
