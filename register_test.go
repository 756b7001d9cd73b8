package hook_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/hook"
	"github.com/bjaus/hook/hooktest"
)

func noopString(_ context.Context, _ string) error { return nil }

func TestRegister_errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		register func(r *hook.Router) error
		wantErr  error
	}{
		"duplicate pattern": {
			register: func(r *hook.Router) error {
				if err := hook.Register(r.Group("Orders"), "Import", noopString); err != nil {
					return err
				}
				return hook.Register(r.Group("Orders"), "Import", noopString)
			},
			wantErr: hook.ErrDuplicateRoute,
		},
		"duplicate differing only by case": {
			register: func(r *hook.Router) error {
				if err := hook.Register(r.Group("Orders"), "Import", noopString); err != nil {
					return err
				}
				return hook.Register(r, "x", noopString, hook.WithRoute("/orders/IMPORT"))
			},
			wantErr: hook.ErrDuplicateRoute,
		},
		"empty pattern": {
			register: func(r *hook.Router) error {
				return hook.Register(r, "", noopString)
			},
			wantErr: hook.ErrInvalidPattern,
		},
		"slashes only": {
			register: func(r *hook.Router) error {
				return hook.Register(r, "x", noopString, hook.WithRoute("//"))
			},
			wantErr: hook.ErrInvalidPattern,
		},
		"unknown receiver": {
			register: func(r *hook.Router) error {
				return hook.Register(r, "Push", noopString, hook.WithReceiverName("github"))
			},
			wantErr: hook.ErrUnknownReceiver,
		},
		"unknown group receiver": {
			register: func(r *hook.Router) error {
				return hook.Register(r.Group("GitHub", hook.WithGroupReceiver("github")), "Push", noopString)
			},
			wantErr: hook.ErrUnknownReceiver,
		},
		"unsupported parameter": {
			register: func(r *hook.Router) error {
				return hook.Register(r, "Count", func(_ context.Context, _ int) error { return nil })
			},
			wantErr: hook.ErrUnsupportedParam,
		},
		"non-struct params": {
			register: func(r *hook.Router) error {
				return hook.RegisterWithParams(r, "Count", func(_ context.Context, _ string, _ int) error { return nil })
			},
			wantErr: hook.ErrUnsupportedParam,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.register(hook.New())
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestRegister_failed_registration_leaves_table_unchanged(t *testing.T) {
	t.Parallel()

	r := hook.New()
	require.NoError(t, hook.Register(r, "Import", noopString))
	require.Error(t, hook.Register(r, "import", noopString))
	require.Error(t, hook.Register(r, "Push", noopString, hook.WithReceiverName("missing")))

	routes := r.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "Import", routes[0].Pattern)
}

func TestRegister_explicit_pattern(t *testing.T) {
	t.Parallel()

	r := hook.New()
	g := r.Group("Orders")
	require.NoError(t, hook.Register(g, "Import", noopString, hook.WithRoute("v2/orders/import")))

	_, err := r.Lookup("Orders/Import")
	require.ErrorIs(t, err, hook.ErrNotFound)

	route, err := r.Lookup("/V2/Orders/Import")
	require.NoError(t, err)
	assert.Equal(t, "v2/orders/import", route.Pattern)
	assert.Equal(t, "Orders", route.Group)
	assert.Equal(t, "Import", route.Name)
}

func TestRegister_receiver_precedence(t *testing.T) {
	t.Parallel()

	pass := hook.ReceiverFunc(func(_ context.Context, r *http.Request) (*http.Request, error) {
		return r, nil
	})

	r := hook.New(hook.WithReceiver("group", pass), hook.WithReceiver("route", pass))
	g := r.Group("GitHub", hook.WithGroupReceiver("group"))
	require.NoError(t, hook.Register(g, "Push", noopString))
	require.NoError(t, hook.Register(g, "Release", noopString, hook.WithReceiverName("route")))
	require.NoError(t, hook.Register(r, "Open", noopString))

	tests := map[string]string{
		"GitHub/Push":    "group",
		"GitHub/Release": "route",
		"Open":           "",
	}

	for pattern, want := range tests {
		t.Run(pattern, func(t *testing.T) {
			t.Parallel()

			route, err := r.Lookup(pattern)
			require.NoError(t, err)
			assert.Equal(t, want, route.Receiver)
		})
	}
}

func TestRegister_route_metadata(t *testing.T) {
	t.Parallel()

	type source struct{ Source string }

	r := hook.New()
	require.NoError(t, hook.Register(r.Group("Files"), "Upload", func(_ context.Context, _ io.Reader) error {
		return nil
	}, hook.WithSummary("Receives a file")))
	require.NoError(t, hook.RegisterWithParams(r, "Import", func(_ context.Context, _ *Order, _ source) error {
		return nil
	}))

	routes := r.Routes()
	require.Len(t, routes, 2)

	assert.Equal(t, "Files/Upload", routes[0].Pattern)
	assert.Equal(t, "Receives a file", routes[0].Summary)
	assert.Equal(t, hook.BindStream, routes[0].Binding)
	assert.Nil(t, routes[0].ParamsType)

	assert.Equal(t, "Import", routes[1].Pattern)
	assert.Equal(t, hook.BindJSON, routes[1].Binding)
	assert.Equal(t, "*hook_test.Order", routes[1].ParamType.String())
	require.NotNil(t, routes[1].ParamsType)
	assert.Equal(t, "hook_test.source", routes[1].ParamsType.String())
}

func TestGroup_name(t *testing.T) {
	t.Parallel()

	r := hook.New()
	assert.Equal(t, "Billing", r.Group("Billing").Name())
}

func TestDefaultPattern(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		group string
		name  string
		want  string
	}{
		"grouped":         {group: "Bar", name: "Foo", want: "Bar/Foo"},
		"ungrouped":       {group: "", name: "Foo", want: "Foo"},
		"slashed group":   {group: "/Bar/", name: "Foo", want: "Bar/Foo"},
		"nested grouping": {group: "Bar/Baz", name: "Foo", want: "Bar/Baz/Foo"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, hook.DefaultPattern(tc.group, tc.name))
		})
	}
}

func TestRouteKey(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   string
		want string
	}{
		"plain":           {in: "Bar/Foo", want: "bar/foo"},
		"leading slash":   {in: "/Bar/Foo", want: "bar/foo"},
		"trailing slash":  {in: "Bar/Foo/", want: "bar/foo"},
		"doubled slashes": {in: "//Bar//Foo", want: "bar/foo"},
		"unicode fold":    {in: "Über/ÄPFEL", want: "über/äpfel"},
		"empty":           {in: "", want: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, hook.RouteKey(tc.in))
		})
	}
}

func TestRouter_serves_registered_group_prefix_only(t *testing.T) {
	t.Parallel()

	r := hook.New()
	require.NoError(t, hook.Register(r.Group("Bar"), "Foo", noopString))

	c := hooktest.NewClient(t, r)
	assert.Equal(t, http.StatusNotFound, hooktest.Post(t, c, "/Foo", "", nil).Status)
	assert.Equal(t, http.StatusOK, hooktest.Post(t, c, "/Bar/Foo", "", nil).Status)
}
