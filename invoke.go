package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Invoke calls the handler registered at pattern without going through a
// listener, and returns the resolved Result.
//
// value is the handler's parameter: a value of the declared type is passed
// as is, a *http.Request is method-checked, authorized and bound like an
// inbound request, and nil is the zero value for record parameters. Anything
// else is a binding failure.
func (r *Router) Invoke(ctx context.Context, pattern string, value any) *Result {
	res := &Result{Path: pattern}
	req, isRequest := value.(*http.Request)
	if isRequest {
		res.Method = req.Method
	}
	ctx, end := r.begin(ctx, res, "")
	defer end()

	rt, err := r.table.resolve(pattern)
	if err != nil {
		return r.finish(ctx, res.fail(StageRouting, KindNotFound, http.StatusNotFound, err))
	}
	res.Route = routeRef(rt)

	if isRequest {
		if !rt.allows(req.Method) {
			return r.finish(ctx, methodNotAllowed(res, rt, req.Method))
		}
		req, err = r.authorize(ctx, rt, req.WithContext(ctx))
		if err != nil {
			return r.finish(ctx, rejected(res, err))
		}
		value = req
		ctx = req.Context()
	}

	c, err := rt.accept(value)
	if err != nil {
		return r.finish(ctx, res.fail(StageBinding, KindInternal, http.StatusInternalServerError, err))
	}

	return r.finish(ctx, resolve(res, c.wrapper, invoke(ctx, c)))
}

// Instruction is a serialized request for direct invocation: a target URL
// (absolute, or just the route path with an optional query) and a body.
//
//	{"url": "Orders/Import?source=batch", "body": "{\"id\": 7}"}
type Instruction struct {
	URL    string            `json:"url"`
	Body   string            `json:"body"`
	Method string            `json:"method,omitempty"`
	Header map[string]string `json:"headers,omitempty"`
}

// ParseInstruction decodes an Instruction from its JSON form.
func ParseInstruction(data []byte) (Instruction, error) {
	var in Instruction
	if err := json.Unmarshal(data, &in); err != nil {
		return Instruction{}, fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
	}
	if strings.TrimSpace(in.URL) == "" {
		return Instruction{}, fmt.Errorf("%w: url is required", ErrInvalidInstruction)
	}
	return in, nil
}

// Request synthesizes the inbound request the instruction describes. The
// method defaults to POST.
func (in Instruction) Request(ctx context.Context) (*http.Request, error) {
	method := in.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, in.URL, strings.NewReader(in.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
	}
	for k, v := range in.Header {
		req.Header.Set(k, v)
	}
	return req, nil
}

// InvokeInstruction synthesizes the instruction's request and dispatches it
// through the full pipeline, receivers included. The error is non-nil only
// when the instruction cannot be turned into a request.
func (r *Router) InvokeInstruction(ctx context.Context, in Instruction) (*Result, error) {
	req, err := in.Request(ctx)
	if err != nil {
		return nil, err
	}
	return r.Dispatch(req), nil
}
