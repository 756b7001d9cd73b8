package hook_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/hook"
	"github.com/bjaus/hook/hooktest"
)

func httptestRecorder(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	explode := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})
	}

	r := hook.New()
	r.Use(hook.RequestID(), hook.Recovery(logger), explode)
	require.NoError(t, hook.Register(r.Group("GitHub"), "Push", noopString))

	c := hooktest.NewClient(t, r)
	resp := hooktest.Do(t, c, http.MethodPost, "/GitHub/Push", []byte("x"), http.Header{"X-Request-ID": {"d-1"}})

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Empty(t, resp.Body)

	out := logs.String()
	assert.Contains(t, out, "webhook middleware panic")
	assert.Contains(t, out, "panic=boom")
	assert.Contains(t, out, "request_id=d-1")
	assert.Contains(t, out, "route=GitHub/Push")
}

func TestDispatch_receiver_panic_is_a_failure(t *testing.T) {
	t.Parallel()

	explode := hook.ReceiverFunc(func(_ context.Context, _ *http.Request) (*http.Request, error) {
		panic("boom")
	})

	called := false
	rec := hooktest.NewRecorder(1)
	r := hook.New(hook.WithReceiver("explode", explode))
	r.Use(rec.Middleware())
	require.NoError(t, hook.Register(r, "Push", func(_ context.Context, _ string) error {
		called = true
		return nil
	}, hook.WithReceiverName("explode")))

	c := hooktest.NewClient(t, r)
	resp := hooktest.Post(t, c, "/Push", "text/plain", []byte("x"))

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Empty(t, resp.Body)
	assert.False(t, called)

	res := rec.Next(t)
	assert.Equal(t, hook.KindInternal, res.Kind)
	assert.Equal(t, hook.StageAuthorizing, res.Stage)

	var pe *hook.PanicError
	require.ErrorAs(t, res.Cause, &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.NotEmpty(t, pe.Stack)

	var rich *goerrors.Error
	require.True(t, goerrors.As(res.Err, &rich))
	assert.Equal(t, hook.CodeReceiverFailed, rich.TextCode)
	assert.Equal(t, goerrors.CategoryInternal, rich.Category)
}

func TestInvokeInstruction_receiver_panic_returns_result(t *testing.T) {
	t.Parallel()

	explode := hook.ReceiverFunc(func(_ context.Context, _ *http.Request) (*http.Request, error) {
		panic("boom")
	})
	r := hook.New(hook.WithReceiver("explode", explode))
	require.NoError(t, hook.Register(r, "X", noopString, hook.WithReceiverName("explode")))

	res, err := r.InvokeInstruction(context.Background(), hook.Instruction{URL: "/X", Body: "a"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, hook.StageAuthorizing, res.Stage)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "/X", strings.NewReader("a"))
	require.NoError(t, err)
	res = r.Invoke(context.Background(), "X", req)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
}

func TestMiddleware_ordering(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) hook.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	r := hook.New()
	r.Use(mark("first"), mark("second"))
	r.Use(mark("third"))
	require.NoError(t, hook.Register(r, "Push", noopString))

	rec := httptestRecorder(r, http.MethodPost, "/Push")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestMiddleware_sees_unrouted_requests(t *testing.T) {
	t.Parallel()

	seen := false
	r := hook.New()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			seen = true
			next.ServeHTTP(w, req)
		})
	})

	rec := httptestRecorder(r, http.MethodPost, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, seen)
}
