package hook

import "net/http"

// resolve decides the final response for an invocation that reached the
// handler, applying these rules in order:
//
//  1. The handler failed: 500 with an empty body. A response set on the
//     Context before the failure is discarded. This is deliberate: the
//     failure means the handler broke its own contract, so a half-built
//     success response cannot be trusted.
//  2. The handler set a response on its Context: it is sent verbatim. A zero
//     status means 200.
//  3. Otherwise: 200 with an empty body.
func resolve(res *Result, wrapper *Context, err error) *Result {
	if err != nil {
		return res.fail(StageInvoking, KindInternal, http.StatusInternalServerError, err)
	}

	res.Stage = StageResolving
	res.Status = http.StatusOK
	if wrapper != nil {
		if resp := wrapper.Response(); resp != nil {
			if resp.Status != 0 {
				res.Status = resp.Status
			}
			res.Header = resp.Header.Clone()
			res.Body = resp.Body
		}
	}
	res.Stage = StageDone
	return res
}
