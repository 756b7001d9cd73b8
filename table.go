package hook

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
)

// Route describes a registered handler.
type Route struct {
	Pattern   string
	Group     string
	Name      string
	Summary   string
	Binding   Binding
	ParamType reflect.Type
	// ParamsType is the query-bound secondary parameter of a ParamsHandler, or nil.
	ParamsType reflect.Type
	// Receiver names the receiver that validates requests before binding, or "".
	Receiver string
}

// DefaultPattern is the pattern a handler gets when none is given:
// "<group>/<name>", or just the name outside a group.
func DefaultPattern(group, name string) string {
	group = strings.Trim(group, "/")
	if group == "" {
		return name
	}
	return group + "/" + name
}

// table maps folded route keys to routes. It is filled during registration
// and only read afterwards, so lookups take no lock.
type table struct {
	routes []*route
	index  map[string]*route
}

func newTable() *table {
	return &table{index: make(map[string]*route)}
}

func (t *table) add(rt *route) error {
	key := routeKey(rt.Pattern)
	if key == "" {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, rt.Pattern)
	}
	if existing, ok := t.index[key]; ok {
		return fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateRoute, rt.Pattern, existing.Pattern)
	}
	t.index[key] = rt
	t.routes = append(t.routes, rt)
	return nil
}

// resolve finds the route whose pattern matches path segment by segment,
// ignoring case.
func (t *table) resolve(path string) (*route, error) {
	if rt, ok := t.index[routeKey(path)]; ok {
		return rt, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// routeKey normalizes a pattern or path: empty segments are dropped and each
// segment is case folded.
func routeKey(p string) string {
	fold := cases.Fold()
	segs := strings.Split(p, "/")
	out := segs[:0]
	for _, s := range segs {
		if s == "" {
			continue
		}
		out = append(out, fold.String(s))
	}
	return strings.Join(out, "/")
}
