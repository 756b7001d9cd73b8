package hook

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Binding identifies how a handler's declared parameter is produced from an
// inbound request. It is chosen once, at registration, from the parameter type.
type Binding int

const (
	BindRequest Binding = iota + 1 // *http.Request, passed through
	BindString                     // string, the body as text
	BindStream                     // io.Reader over the body
	BindJSON                       // record decoded from the body
	BindQuery                      // Query[T], record mapped from the query string
	BindContext                    // *Context wrapper
)

func (b Binding) String() string {
	switch b {
	case BindRequest:
		return "request"
	case BindString:
		return "string"
	case BindStream:
		return "stream"
	case BindJSON:
		return "json"
	case BindQuery:
		return "query"
	case BindContext:
		return "context"
	default:
		return fmt.Sprintf("binding(%d)", int(b))
	}
}

// NeedsBody reports whether the binding reads the request body. Routes with
// such a binding reject GET and HEAD.
func (b Binding) NeedsBody() bool {
	return b == BindString || b == BindStream || b == BindJSON
}

var (
	requestType     = reflect.TypeFor[*http.Request]()
	contextType     = reflect.TypeFor[*Context]()
	stringType      = reflect.TypeFor[string]()
	readerType      = reflect.TypeFor[io.Reader]()
	queryBinderType = reflect.TypeFor[queryBinder]()
)

// queryBinder is implemented by *Query[T].
type queryBinder interface {
	bindQuery(values url.Values) error
}

// Query binds a handler parameter from the query string instead of the body.
// Query keys are matched case-insensitively against T's field names (or their
// `query` tag); unknown keys are ignored and missing keys keep T's defaults.
//
//	hook.Register(r, "Lookup", func(ctx context.Context, q hook.Query[Order]) error { ... })
type Query[T any] struct {
	Value T
}

func (q *Query[T]) bindQuery(values url.Values) error {
	return bindQueryValues(&q.Value, values)
}

// classifyParam determines the binding for a declared parameter type.
func classifyParam(t reflect.Type) (Binding, error) {
	switch t {
	case requestType:
		return BindRequest, nil
	case contextType:
		return BindContext, nil
	case stringType:
		return BindString, nil
	case readerType:
		return BindStream, nil
	}

	if reflect.PointerTo(t).Implements(queryBinderType) || t.Implements(queryBinderType) {
		if err := checkQueryTarget(queryValueType(t)); err != nil {
			return 0, err
		}
		return BindQuery, nil
	}

	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	//exhaustive:ignore
	switch base.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice:
		return BindJSON, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedParam, t)
	}
}

// queryValueType returns T for Query[T] or *Query[T].
func queryValueType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Field(0).Type
}

// checkQueryTarget verifies that t can receive query values.
func checkQueryTarget(t reflect.Type) error {
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: query target %s is not a struct", ErrUnsupportedParam, t)
	}
	return nil
}

// binder produces a handler's parameter from a request. The *Context return
// is non-nil only for BindContext.
type binder[T any] func(r *http.Request) (T, *Context, error)

// newBinder builds the binder for a classified parameter type. All type
// inspection happens here; the returned closure only moves data.
func newBinder[T any](b Binding, t reflect.Type, codecs *codecRegistry) binder[T] {
	switch b {
	case BindRequest:
		return func(r *http.Request) (T, *Context, error) {
			return any(r).(T), nil, nil
		}

	case BindContext:
		return func(r *http.Request) (T, *Context, error) {
			c := NewContext(r)
			return any(c).(T), c, nil
		}

	case BindString:
		return func(r *http.Request) (T, *Context, error) {
			var zero T
			body, err := readBody(r)
			if err != nil {
				return zero, nil, bodyError(b, err)
			}
			if !utf8.Valid(body) {
				return zero, nil, bodyError(b, fmt.Errorf("body is not valid UTF-8"))
			}
			return any(string(body)).(T), nil, nil
		}

	case BindStream:
		return func(r *http.Request) (T, *Context, error) {
			var zero T
			body, err := readBody(r)
			if err != nil {
				return zero, nil, bodyError(b, err)
			}
			var rd io.Reader = bytes.NewReader(body)
			return any(rd).(T), nil, nil
		}

	case BindQuery:
		return func(r *http.Request) (T, *Context, error) {
			v, err := bindQueryParam[T](t, queryValues(r))
			if err != nil {
				return v, nil, &BindError{Binding: b, Err: err}
			}
			return v, nil, nil
		}

	default:
		return func(r *http.Request) (T, *Context, error) {
			var v T
			body, err := readBody(r)
			if err != nil {
				return v, nil, bodyError(b, err)
			}
			// An empty body is an absent record, not an error.
			if len(bytes.TrimSpace(body)) == 0 {
				return v, nil, nil
			}
			dec := codecs.recordDecoder(r.Header.Get("Content-Type"))
			if err := dec.Decode(bytes.NewReader(body), &v); err != nil {
				var zero T
				return zero, nil, bodyError(b, err)
			}
			return v, nil, nil
		}
	}
}

func bodyError(b Binding, err error) *BindError {
	return &BindError{Binding: b, Err: fmt.Errorf("%w: %w", ErrBindBody, err)}
}

// bindQueryParam fills a Query[T] (or *Query[T]) from values.
func bindQueryParam[T any](t reflect.Type, values url.Values) (T, error) {
	var v T
	if t.Kind() == reflect.Pointer {
		v = reflect.New(t.Elem()).Interface().(T)
		return v, any(v).(queryBinder).bindQuery(values)
	}
	return v, any(&v).(queryBinder).bindQuery(values)
}

// bindQueryValues maps query values onto the exported fields of the struct
// target points to. The key for a field is its `query` tag or, without one,
// its name; matching ignores case.
func bindQueryValues(target any, values url.Values) error {
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name := f.Tag.Get("query")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}

		vals := lookupFold(values, name)
		if len(vals) == 0 {
			if def := f.Tag.Get("default"); def != "" {
				vals = []string{def}
			} else {
				continue
			}
		}

		if err := setFieldValues(v.Field(i), vals); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrBindQuery, name, err)
		}
	}

	return nil
}

// lookupFold returns the values for key, matching case-insensitively when no
// exact key exists. Among several case variants the lexically smallest key
// wins, so "ID" is picked over "Id" and "id".
func lookupFold(values url.Values, key string) []string {
	if vals, ok := values[key]; ok {
		return vals
	}
	match, found := "", false
	for k := range values {
		if strings.EqualFold(k, key) && (!found || k < match) {
			match, found = k, true
		}
	}
	if !found {
		return nil
	}
	return values[match]
}

// QueryValue returns the first query value for key, ignoring key case.
func QueryValue(r *http.Request, key string) string {
	vals := lookupFold(queryValues(r), key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func queryValues(r *http.Request) url.Values {
	if r == nil || r.URL == nil {
		return nil
	}
	return r.URL.Query()
}

// setFieldValues sets a field from one or more raw values. Slice fields take
// every value; scalar fields take the first.
func setFieldValues(field reflect.Value, values []string) error {
	if field.Kind() == reflect.Slice && field.Type().Elem().Kind() != reflect.Uint8 {
		out := reflect.MakeSlice(field.Type(), len(values), len(values))
		for i, raw := range values {
			if err := setFieldValue(out.Index(i), raw); err != nil {
				return err
			}
		}
		field.Set(out)
		return nil
	}
	return setFieldValue(field, values[0])
}

// setFieldValue sets a reflect.Value from a string, supporting common types.
func setFieldValue(field reflect.Value, value string) error {
	if field.Type() == reflect.TypeFor[time.Duration]() {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}

	if field.Type() == reflect.TypeFor[time.Time]() {
		ts, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(ts))
		return nil
	}

	//exhaustive:ignore
	switch field.Kind() {
	case reflect.Pointer:
		elem := reflect.New(field.Type().Elem())
		if err := setFieldValue(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported type: %s", field.Type())
	}
	return nil
}

// ReadBody drains the request body and puts back a re-readable copy, so
// binding and handlers holding the raw request still see the payload.
// Receivers that verify the body read it this way. A read error, such as a
// payload over the BodyLimit, wraps ErrBindBody.
func ReadBody(r *http.Request) ([]byte, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindBody, err)
	}
	return body, nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	//nolint:errcheck,gosec // body already drained
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return body, nil
}
