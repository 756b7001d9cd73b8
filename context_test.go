package hook_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/hook"
)

func TestSetValueGetValue_roundTrip(t *testing.T) {
	t.Parallel()

	type tenantID string

	r, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "/test", nil)
	require.NoError(t, err)

	r = hook.SetValue[tenantID](r, "tenant-123")

	val, ok := hook.GetValue[tenantID](r.Context())
	assert.True(t, ok)
	assert.Equal(t, tenantID("tenant-123"), val)
}

func TestGetValue_missing_returns_false(t *testing.T) {
	t.Parallel()

	val, ok := hook.GetValue[string](context.Background())
	assert.False(t, ok)
	assert.Equal(t, "", val)
}

func TestEventName(t *testing.T) {
	t.Parallel()

	r, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "/test", nil)
	require.NoError(t, err)

	assert.Empty(t, hook.EventName(r.Context()))

	r = hook.WithEventName(r, "push")
	assert.Equal(t, "push", hook.EventName(r.Context()))

	// Event names don't collide with plain string values.
	r = hook.SetValue[string](r, "other")
	assert.Equal(t, "push", hook.EventName(r.Context()))
}

func TestContext_response_slot(t *testing.T) {
	t.Parallel()

	r, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "/test", nil)
	require.NoError(t, err)

	c := hook.NewContext(r)
	assert.Same(t, r, c.Request)
	assert.Nil(t, c.Response(), "response starts out absent")

	c.Respond(http.StatusAccepted, []byte("first"))
	c.SetResponse(hook.NewResponse(http.StatusCreated, "second").SetHeader("X-Id", "7"))

	resp := c.Response()
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "second", string(resp.Body))
	assert.Equal(t, "7", resp.Header.Get("X-Id"))
}

func TestInvocationID_missing(t *testing.T) {
	t.Parallel()

	assert.Empty(t, hook.InvocationID(context.Background()))
}
