package relay

import (
	"net/http"
	"strings"
)

// router is the ordered route table. Unlike air's router.go
// (a radix trie, fastest for static-heavy trees but opaque about
// registration order), this is a plain slice scanned front-to-back, so
// registration order stays directly observable: the earliest route that
// fully matches wins, and the earliest partial match decides a 405.
type router struct {
	registry *ConverterRegistry
	routes   []*Route
	wsRoutes []*WebSocketRoute
}

func newRouter(registry *ConverterRegistry) *router {
	return &router{registry: registry}
}

// add compiles and appends an HTTP route in registration order.
func (rt *router) add(r *Route) error {
	cp, err := CompilePath(r.Path, rt.registry)
	if err != nil {
		return err
	}
	r.compiled = cp
	rt.routes = append(rt.routes, r)
	return nil
}

// addWS compiles and appends a WebSocket route in registration order.
func (rt *router) addWS(r *WebSocketRoute) error {
	cp, err := CompilePath(r.Path, rt.registry)
	if err != nil {
		return err
	}
	r.compiled = cp
	rt.wsRoutes = append(rt.wsRoutes, r)
	return nil
}

// normalizedSegments appends a trailing slash to path in a local copy used
// only for matching, then splits it on "/".
func normalizedSegments(path string) []string {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return strings.Split(path, "/")[1:]
}

// matchResult is what dispatchHTTP/dispatchWS found.
type matchResult struct {
	route      *Route
	wsRoute    *WebSocketRoute
	pathParams map[string]interface{}
}

// matchHTTP walks rt.routes in registration order. It returns a full match
// if found; otherwise, if any route's path matched but the method did not,
// it returns that route as a partial match.
func (rt *router) matchHTTP(path, method string) (full *matchResult, partial *Route) {
	segments := normalizedSegments(path)

	for _, r := range rt.routes {
		params, ok := r.compiled.match(segments)
		if !ok {
			continue
		}
		if r.Methods[method] {
			return &matchResult{route: r, pathParams: params}, nil
		}
		if partial == nil {
			partial = r
		}
	}

	return nil, partial
}

// matchWS walks rt.wsRoutes in registration order.
func (rt *router) matchWS(path string) *matchResult {
	segments := normalizedSegments(path)

	for _, r := range rt.wsRoutes {
		params, ok := r.compiled.match(segments)
		if ok {
			return &matchResult{wsRoute: r, pathParams: params}
		}
	}

	return nil
}

// DefaultNotFoundResponse is the Response the router emits when no route's
// path matches an HTTP scope.
func DefaultNotFoundResponse() *Response {
	return &Response{
		Status:    http.StatusNotFound,
		MediaType: "text/plain",
		rawBody:   []byte(http.StatusText(http.StatusNotFound)),
	}
}

// DefaultMethodNotAllowedResponse is the Response the router emits when a
// route's path matched but its method did not.
func DefaultMethodNotAllowedResponse() *Response {
	return &Response{
		Status:    http.StatusMethodNotAllowed,
		MediaType: "text/plain",
		rawBody:   []byte("Method Not Allowed"),
	}
}
