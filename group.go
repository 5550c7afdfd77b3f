package relay

import "strings"

// Group is a named bundle of routes sharing a path prefix plus optional
// pre-check and error hooks.
//
// A Group is built with NewGroup and populated with GET/POST/... before
// being handed to Application.AddGroup, the same shape air's
// Air.Group(prefix, gases...) returns a *Group for the caller to attach
// routes to, generalized here with per-group pre-check and error hooks.
type Group struct {
	Name   string
	Prefix string

	Deprecated bool

	// GroupCheck may return a non-nil Response to short-circuit a
	// matched route's callback. A nil Response and nil
	// error lets the route run.
	GroupCheck func(req *Request) (*Response, error)

	// OnError and OnWSError are consulted by the error pipeline before
	// the Application-level hook.
	OnError   func(req *Request, err error) (*Response, bool)
	OnWSError func(ws *WebSocket, err error)

	routes   []*Route
	wsRoutes []*WebSocketRoute
	added    bool
}

// NewGroup returns a new Group with the given non-empty, leading-"/" prefix.
func NewGroup(name, prefix string) *Group {
	return &Group{Name: name, Prefix: prefix}
}

// route appends a new HTTP route declared under g with declaredPath, to be
// rewritten to g.Prefix+declaredPath when the Group is added to an
// Application.
func (g *Group) route(methods []string, declaredPath string, h GroupHandlerFunc) *Route {
	r := &Route{
		Path:         declaredPath,
		Methods:      newHTTPMethodSet(methods...),
		groupHandler: h,
		Group:        g,
	}
	g.routes = append(g.routes, r)
	return r
}

// GET registers a GET route under g.
func (g *Group) GET(path string, h GroupHandlerFunc) *Route { return g.route([]string{"GET"}, path, h) }

// POST registers a POST route under g.
func (g *Group) POST(path string, h GroupHandlerFunc) *Route {
	return g.route([]string{"POST"}, path, h)
}

// PUT registers a PUT route under g.
func (g *Group) PUT(path string, h GroupHandlerFunc) *Route { return g.route([]string{"PUT"}, path, h) }

// PATCH registers a PATCH route under g.
func (g *Group) PATCH(path string, h GroupHandlerFunc) *Route {
	return g.route([]string{"PATCH"}, path, h)
}

// DELETE registers a DELETE route under g.
func (g *Group) DELETE(path string, h GroupHandlerFunc) *Route {
	return g.route([]string{"DELETE"}, path, h)
}

// HEAD registers a HEAD route under g.
func (g *Group) HEAD(path string, h GroupHandlerFunc) *Route {
	return g.route([]string{"HEAD"}, path, h)
}

// OPTIONS registers an OPTIONS route under g.
func (g *Group) OPTIONS(path string, h GroupHandlerFunc) *Route {
	return g.route([]string{"OPTIONS"}, path, h)
}

// WS registers a WebSocket route under g.
func (g *Group) WS(path string, encoding WSEncoding) *WebSocketRoute {
	r := &WebSocketRoute{Path: path, Encoding: encoding, Group: g}
	g.wsRoutes = append(g.wsRoutes, r)
	return r
}

// joinPrefix collapses adjacent slashes when combining prefix and path.
func joinPrefix(prefix, path string) string {
	joined := "/" + strings.Trim(prefix, "/") + "/" + strings.TrimPrefix(path, "/")
	for strings.Contains(joined, "//") {
		joined = strings.ReplaceAll(joined, "//", "/")
	}
	if len(joined) > 1 && strings.HasSuffix(joined, "/") {
		joined = strings.TrimSuffix(joined, "/")
	}
	return joined
}
