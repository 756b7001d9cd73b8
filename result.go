package hook

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by the failure envelope in Result.Err.
const (
	CodeNotFound         = "HOOK_NOT_FOUND"
	CodeMethodNotAllowed = "HOOK_METHOD_NOT_ALLOWED"
	CodeUnauthorized     = "HOOK_UNAUTHORIZED"
	CodeBindingFailed    = "HOOK_BINDING_FAILED"
	CodeReceiverFailed   = "HOOK_RECEIVER_FAILED"
	CodeHandlerFailed    = "HOOK_HANDLER_FAILED"
)

// Kind classifies how a dispatch failed.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindMethodNotAllowed
	KindUnauthorized
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindUnauthorized:
		return "unauthorized"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Stage is a step of the dispatch pipeline. A failed Result records the stage
// it failed in; a successful one ends in StageDone.
type Stage int

const (
	StageRouting Stage = iota
	StageAuthorizing
	StageBinding
	StageInvoking
	StageResolving
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageRouting:
		return "routing"
	case StageAuthorizing:
		return "authorizing"
	case StageBinding:
		return "binding"
	case StageInvoking:
		return "invoking"
	case StageResolving:
		return "resolving"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Result is the outcome of one pass through the dispatch pipeline.
//
// Status, Header and Body are what the caller sees. Kind, Stage, Err and Cause
// are diagnostics only and are never written to the response.
type Result struct {
	InvocationID string
	Method       string
	Path         string
	Route        *Route

	Status int
	Header http.Header
	Body   []byte

	Kind  Kind
	Stage Stage

	// Err is a *goerrors.Error envelope describing the failure, nil on success.
	Err error
	// Cause is the error that triggered the failure: a *BindError, a
	// *PanicError, the handler's error, or the receiver's rejection.
	Cause error
}

// Failed reports whether the dispatch ended in a failure state.
func (res *Result) Failed() bool { return res.Kind != KindNone }

// fail moves the result into the failed state. Any response gathered so far
// is dropped: failures always carry an empty body.
func (res *Result) fail(stage Stage, kind Kind, status int, cause error) *Result {
	res.Stage = stage
	res.Kind = kind
	res.Status = status
	res.Header = nil
	res.Body = nil
	res.Cause = cause
	res.Err = res.envelope()
	return res
}

func (res *Result) envelope() *goerrors.Error {
	msg := fmt.Sprintf("hook: dispatch failed while %s", res.Stage)

	var err *goerrors.Error
	if res.Cause != nil {
		err = goerrors.Wrap(res.Cause, res.category(), msg)
	} else {
		err = goerrors.New(msg, res.category())
	}
	err = err.WithCode(res.Status).WithTextCode(res.textCode())

	metadata := map[string]any{
		"invocation_id": res.InvocationID,
		"stage":         res.Stage.String(),
		"kind":          res.Kind.String(),
		"path":          res.Path,
	}
	if res.Method != "" {
		metadata["method"] = res.Method
	}
	if res.Route != nil {
		metadata["route"] = res.Route.Pattern
	}
	err.WithMetadata(metadata)
	return err
}

func (res *Result) category() goerrors.Category {
	switch res.Kind {
	case KindNotFound:
		return goerrors.CategoryNotFound
	case KindMethodNotAllowed:
		return goerrors.CategoryBadInput
	case KindUnauthorized:
		return goerrors.CategoryAuth
	case KindInternal:
		if res.Stage == StageInvoking || res.Stage == StageResolving {
			return goerrors.CategoryOperation
		}
		return goerrors.CategoryInternal
	default:
		return goerrors.CategoryInternal
	}
}

func (res *Result) textCode() string {
	switch res.Kind {
	case KindNotFound:
		return CodeNotFound
	case KindMethodNotAllowed:
		return CodeMethodNotAllowed
	case KindUnauthorized:
		return CodeUnauthorized
	default:
		switch {
		case res.Stage == StageBinding, errors.Is(res.Cause, ErrBindBody):
			return CodeBindingFailed
		case res.Stage == StageAuthorizing:
			return CodeReceiverFailed
		default:
			return CodeHandlerFailed
		}
	}
}

// writeResult writes the resolved response. Failures carry no body.
func writeResult(w http.ResponseWriter, res *Result) {
	for k, vs := range res.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(res.Status)
	if len(res.Body) > 0 {
		//nolint:errcheck,gosec // best-effort after WriteHeader
		w.Write(res.Body)
	}
}
