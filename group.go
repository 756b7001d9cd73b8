package hook

// Group is a collection of handlers that share a group name, which prefixes
// their default patterns, and optionally a receiver.
type Group struct {
	router   *Router
	name     string
	receiver string
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithGroupReceiver scopes every route of the group to the named receiver
// unless the route names its own.
func WithGroupReceiver(name string) GroupOption {
	return func(g *Group) {
		g.receiver = name
	}
}

// Group creates a handler group. Handlers registered on it without an
// explicit pattern are reachable at "<name>/<handler name>".
func (r *Router) Group(name string, opts ...GroupOption) *Group {
	g := &Group{
		router: r,
		name:   name,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// addRoute implements Registrar for Group.
func (g *Group) addRoute(rt *route) error { return g.router.addRoute(rt) }

func (g *Group) groupName() string { return g.name }

func (g *Group) defaultReceiver() string { return g.receiver }

func (g *Group) codecRegistry() *codecRegistry { return g.router.codecs }
