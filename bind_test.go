package hook_test

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/hook"
	"github.com/bjaus/hook/hooktest"
)

func TestClassifyParam(t *testing.T) {
	t.Parallel()

	type record struct{ ID string }

	tests := map[string]struct {
		typ     reflect.Type
		want    hook.Binding
		wantErr bool
	}{
		"request":         {typ: reflect.TypeFor[*http.Request](), want: hook.BindRequest},
		"context":         {typ: reflect.TypeFor[*hook.Context](), want: hook.BindContext},
		"string":          {typ: reflect.TypeFor[string](), want: hook.BindString},
		"reader":          {typ: reflect.TypeFor[io.Reader](), want: hook.BindStream},
		"query":           {typ: reflect.TypeFor[hook.Query[record]](), want: hook.BindQuery},
		"query pointer":   {typ: reflect.TypeFor[*hook.Query[record]](), want: hook.BindQuery},
		"struct":          {typ: reflect.TypeFor[record](), want: hook.BindJSON},
		"struct pointer":  {typ: reflect.TypeFor[*record](), want: hook.BindJSON},
		"map":             {typ: reflect.TypeFor[map[string]any](), want: hook.BindJSON},
		"slice":           {typ: reflect.TypeFor[[]record](), want: hook.BindJSON},
		"int":             {typ: reflect.TypeFor[int](), wantErr: true},
		"string pointer":  {typ: reflect.TypeFor[*string](), wantErr: true},
		"channel":         {typ: reflect.TypeFor[chan int](), wantErr: true},
		"query of scalar": {typ: reflect.TypeFor[hook.Query[int]](), wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := hook.ClassifyParam(tc.typ)
			if tc.wantErr {
				require.ErrorIs(t, err, hook.ErrUnsupportedParam)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBinding_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "json", hook.BindJSON.String())
	assert.Equal(t, "query", hook.BindQuery.String())
	assert.Equal(t, "binding(99)", hook.Binding(99).String())
}

func TestBind_string_rejects_invalid_utf8(t *testing.T) {
	t.Parallel()

	called := false
	rec := hooktest.NewRecorder(1)
	r := hook.New()
	r.Use(rec.Middleware())
	require.NoError(t, hook.Register(r, "Text", func(_ context.Context, _ string) error {
		called = true
		return nil
	}))

	c := hooktest.NewClient(t, r)
	resp := hooktest.Post(t, c, "/Text", "text/plain", []byte{0xff, 0xfe, 0xfd})

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.False(t, called)

	res := rec.Next(t)
	assert.Equal(t, hook.StageBinding, res.Stage)
	assert.ErrorIs(t, res.Cause, hook.ErrBindBody)
}

func TestBind_xml_body(t *testing.T) {
	t.Parallel()

	type shipment struct {
		XMLName xml.Name `xml:"shipment"`
		ID      string   `xml:"id"`
		Weight  float64  `xml:"weight"`
	}

	tests := map[string]string{
		"application/xml": "application/xml",
		"text/xml":        "text/xml; charset=utf-8",
		"vendor xml":      "application/vnd.carrier+xml",
	}

	for name, contentType := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got shipment
			r := hook.New()
			require.NoError(t, hook.Register(r, "Ship", func(_ context.Context, s shipment) error {
				got = s
				return nil
			}))

			c := hooktest.NewClient(t, r)
			resp := hooktest.Post(t, c, "/Ship", contentType,
				[]byte(`<shipment><id>s-1</id><weight>2.5</weight></shipment>`))

			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, "s-1", got.ID)
			assert.InDelta(t, 2.5, got.Weight, 0.001)
		})
	}
}

func TestBind_unknown_content_type_reads_json(t *testing.T) {
	t.Parallel()

	var got map[string]any
	r := hook.New()
	require.NoError(t, hook.Register(r, "Any", func(_ context.Context, m map[string]any) error {
		got = m
		return nil
	}))

	c := hooktest.NewClient(t, r)
	resp := hooktest.Post(t, c, "/Any", "application/x-www-form-urlencoded", []byte(`{"event":"push"}`))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, map[string]any{"event": "push"}, got)
}

type csvDecoder struct{}

func (csvDecoder) ContentType() string { return "text/csv" }

func (csvDecoder) Decode(r io.Reader, v any) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	out, ok := v.(*[]string)
	if !ok {
		return nil
	}
	*out = append(*out, string(b))
	return nil
}

func TestBind_custom_decoder(t *testing.T) {
	t.Parallel()

	var got []string
	r := hook.New(hook.WithDecoder(csvDecoder{}))
	require.NoError(t, hook.Register(r, "Rows", func(_ context.Context, rows []string) error {
		got = rows
		return nil
	}))

	c := hooktest.NewClient(t, r)
	resp := hooktest.Post(t, c, "/Rows", "text/csv", []byte("a,b,c"))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, []string{"a,b,c"}, got)
}

func TestBind_query_field_types(t *testing.T) {
	t.Parallel()

	type filter struct {
		Tags    []string
		Since   time.Time
		Window  time.Duration
		Limit   *int
		Ratio   float32
		Retries uint8
		Secret  string `query:"-"`
		Source  string `query:"src"`
		ignored string
	}

	var got filter
	r := hook.New()
	require.NoError(t, hook.Register(r, "Filter", func(_ context.Context, q hook.Query[filter]) error {
		got = q.Value
		return nil
	}))

	c := hooktest.NewClient(t, r)
	resp := hooktest.Get(t, c,
		"/Filter?tags=a&TAGS=b&since=2024-01-02T03:04:05Z&window=90s&limit=7&ratio=0.5&retries=3&secret=x&SRC=ci&ignored=y")

	require.Equal(t, http.StatusOK, resp.Status)
	assert.Len(t, got.Tags, 1, "keys differing only by case are distinct query keys")
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), got.Since)
	assert.Equal(t, 90*time.Second, got.Window)
	require.NotNil(t, got.Limit)
	assert.Equal(t, 7, *got.Limit)
	assert.InDelta(t, 0.5, got.Ratio, 0.001)
	assert.Equal(t, uint8(3), got.Retries)
	assert.Empty(t, got.Secret)
	assert.Equal(t, "ci", got.Source)
	assert.Empty(t, got.ignored)
}

func TestBind_query_repeated_key(t *testing.T) {
	t.Parallel()

	type filter struct {
		Tag []string
	}

	var got filter
	r := hook.New()
	require.NoError(t, hook.Register(r, "Filter", func(_ context.Context, q hook.Query[filter]) error {
		got = q.Value
		return nil
	}))

	c := hooktest.NewClient(t, r)
	resp := hooktest.Get(t, c, "/Filter?tag=a&tag=b&tag=c")

	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, []string{"a", "b", "c"}, got.Tag)
}

func TestBind_query_bad_value(t *testing.T) {
	t.Parallel()

	type filter struct {
		Limit int
	}

	rec := hooktest.NewRecorder(1)
	r := hook.New()
	r.Use(rec.Middleware())
	require.NoError(t, hook.Register(r, "Filter", func(_ context.Context, _ hook.Query[filter]) error {
		return nil
	}))

	c := hooktest.NewClient(t, r)
	resp := hooktest.Get(t, c, "/Filter?limit=lots")

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Empty(t, resp.Body)

	res := rec.Next(t)
	assert.ErrorIs(t, res.Cause, hook.ErrBindQuery)

	var bindErr *hook.BindError
	require.ErrorAs(t, res.Cause, &bindErr)
	assert.Equal(t, hook.BindQuery, bindErr.Binding)
}

func TestQueryValue(t *testing.T) {
	t.Parallel()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/x?Format=yaml&empty=", nil)
	require.NoError(t, err)

	assert.Equal(t, "yaml", hook.QueryValue(req, "format"))
	assert.Equal(t, "yaml", hook.QueryValue(req, "Format"))
	assert.Empty(t, hook.QueryValue(req, "empty"))
	assert.Empty(t, hook.QueryValue(req, "missing"))
}

func TestQueryValue_case_variants_pick_smallest_key(t *testing.T) {
	t.Parallel()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/x?iD=3&Id=1&ID=2", nil)
	require.NoError(t, err)

	for range 20 {
		assert.Equal(t, "2", hook.QueryValue(req, "id"))
	}
	assert.Equal(t, "1", hook.QueryValue(req, "Id"), "an exact key wins")
}
