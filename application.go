package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Middleware wraps a Request before it reaches routing, run in registration
// order. It returns a non-nil Response to short-circuit dispatch before the
// router runs.
type Middleware func(req *Request) (*Response, error)

// WSMiddleware is the WebSocket analogue of Middleware.
type WSMiddleware func(ws *WebSocket) error

// Application is the top-level dispatcher, built in the style of air.go's
// Serve/ServeHTTP wiring.
//
// Application exclusively owns its router and groups; both are written only
// during configuration and read-only during dispatch, so no lock is needed
// on the hot path.
type Application struct {
	Debug bool

	registry   *ConverterRegistry
	router     *router
	groups     map[string]*Group
	groupOrder []*Group

	middleware   []Middleware
	wsMiddleware []WSMiddleware

	lifespan *LifespanHandler

	// OnRouteError is consulted after a matched Group's OnError hook.
	// Returning (nil, false) falls through to the default response (400 for
	// a *PayloadError, 500 otherwise).
	OnRouteError func(req *Request, err error) (*Response, bool)

	// OnWSError is the WebSocket analogue, called only when the matched
	// route's Group has no OnWSError hook of its own.
	OnWSError func(ws *WebSocket, err error)

	// OnProtocolError is the application-level hook a fatal ProtocolError
	// is reported to, before the connection task terminates.
	OnProtocolError func(scope *Scope, err error)
}

// NewApplication returns an Application with an empty route table and the
// builtin converter registry.
func NewApplication() *Application {
	registry := NewConverterRegistry()
	return &Application{
		registry: registry,
		router:   newRouter(registry),
		groups:   map[string]*Group{},
	}
}

// Converters returns the Application's converter registry, open for
// additional Register calls before any route referencing a new id is
// compiled.
func (app *Application) Converters() *ConverterRegistry { return app.registry }

// SetLifespan installs the startup/shutdown handler run for the process's
// one lifespan scope.
func (app *Application) SetLifespan(handler *LifespanHandler) { app.lifespan = handler }

// Use appends an HTTP middleware to run, in registration order, ahead of
// routing.
func (app *Application) Use(mw Middleware) { app.middleware = append(app.middleware, mw) }

// UseWS appends a WebSocket middleware.
func (app *Application) UseWS(mw WSMiddleware) { app.wsMiddleware = append(app.wsMiddleware, mw) }

// AddRoute registers a standalone HTTP route (not part of a Group).
func (app *Application) AddRoute(r *Route) error { return app.router.add(r) }

// AddWSRoute registers a standalone WebSocket route.
func (app *Application) AddWSRoute(r *WebSocketRoute) error { return app.router.addWS(r) }

// Route registers an HTTP route with an ungrouped handler
// ("decorator-style route(path, methods?, ...)").
func (app *Application) Route(methods []string, path string, h HandlerFunc) (*Route, error) {
	r := &Route{Path: path, Methods: newHTTPMethodSet(methods...), handler: h}
	if err := app.AddRoute(r); err != nil {
		return nil, err
	}
	return r, nil
}

// WS registers a standalone WebSocket route.
func (app *Application) WS(path string, encoding WSEncoding) (*WebSocketRoute, error) {
	r := &WebSocketRoute{Path: path, Encoding: encoding}
	if err := app.AddWSRoute(r); err != nil {
		return nil, err
	}
	return r, nil
}

// AddGroup registers a Group's routes under prefix: each
// route's declared path is rewritten to
// "/" + groupPrefix + route.declaredPath (collapsing adjacent slashes), then
// appended to the router in declaration order. A Group may be added at most
// once; re-adding the same named Group fails with *GroupAlreadyAdded.
func (app *Application) AddGroup(g *Group, prefix string) error {
	if _, exists := app.groups[g.Name]; exists || g.added {
		return GroupAlreadyAdded(g.Name)
	}

	fullPrefix := g.Prefix
	if prefix != "" {
		fullPrefix = joinPrefix(prefix, g.Prefix)
	}

	for _, r := range g.routes {
		r.Path = joinPrefix(fullPrefix, r.Path)
		if err := app.router.add(r); err != nil {
			return err
		}
	}
	for _, r := range g.wsRoutes {
		r.Path = joinPrefix(fullPrefix, r.Path)
		if err := app.router.addWS(r); err != nil {
			return err
		}
	}

	g.added = true
	app.groups[g.Name] = g
	app.groupOrder = append(app.groupOrder, g)
	return nil
}

// Groups returns the Groups added so far, in registration order.
func (app *Application) Groups() []*Group { return app.groupOrder }

// Routes returns the registered HTTP routes, in registration order.
func (app *Application) Routes() []*Route { return app.router.routes }

// Dispatch is the gateway-facing entry point: it receives one Scope plus its
// receive/send pair and runs it to completion scope.App
// is set to app before any further work.
func (app *Application) Dispatch(scope *Scope, receive Receive, send Send) error {
	scope.App = app

	switch scope.Type {
	case ScopeHTTP:
		return app.dispatchHTTP(scope, receive, send)
	case ScopeWebSocket:
		return app.dispatchWS(scope, receive, send)
	case ScopeLifespan:
		return runLifespan(scope, receive, send, app.lifespan)
	default:
		err := &ProtocolError{Message: fmt.Sprintf("relay: unknown scope type %q", scope.Type)}
		if app.OnProtocolError != nil {
			app.OnProtocolError(scope, err)
		}
		return err
	}
}

func (app *Application) dispatchHTTP(scope *Scope, receive Receive, send Send) error {
	req := newRequest(scope, receive, send)
	defer req.Close()

	for _, mw := range app.middleware {
		resp, err := mw(req)
		if err != nil {
			return app.emitRouteError(req, nil, err)
		}
		if resp != nil {
			return resp.send(req)
		}
	}

	full, partial := app.router.matchHTTP(scope.Path, scope.Method)
	if full == nil {
		if partial != nil {
			return DefaultMethodNotAllowedResponse().send(req)
		}
		return DefaultNotFoundResponse().send(req)
	}

	route := full.route
	scope.Endpoint = route
	scope.PathParams = full.pathParams

	if route.Group != nil && route.Group.GroupCheck != nil {
		resp, err := app.runGroupCheck(route.Group, req)
		if err != nil {
			return app.emitRouteError(req, route.Group, err)
		}
		if resp != nil {
			return resp.send(req)
		}
	}

	resp, err := app.invoke(route, req)
	if err != nil {
		return app.emitRouteError(req, route.Group, err)
	}
	return resp.send(req)
}

func (app *Application) runGroupCheck(g *Group, req *Request) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("relay: panic in group check: %v", r)
		}
	}()
	return g.GroupCheck(req)
}

func (app *Application) invoke(route *Route, req *Request) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("relay: panic in route callback: %v", r)
		}
	}()

	if route.groupHandler != nil {
		return route.groupHandler(route.Group, req)
	}
	if route.handler != nil {
		return route.handler(req)
	}
	return nil, &ConfigurationError{Message: "relay: route has no callback"}
}

// emitRouteError runs the error pipeline: the Group's OnError hook (if
// any), then the Application's OnRouteError hook; if neither produces a
// Response, it emits a default 400 for a *PayloadError and a 500 otherwise.
func (app *Application) emitRouteError(req *Request, group *Group, err error) error {
	if he, ok := err.(*HTTPException); ok {
		return NewResponse(he.Detail, he.Status, he.Headers).send(req)
	}

	if group != nil && group.OnError != nil {
		if resp, handled := group.OnError(req, err); handled {
			return resp.send(req)
		}
	}

	if app.OnRouteError != nil {
		if resp, handled := app.OnRouteError(req, err); handled {
			return resp.send(req)
		}
	}

	if pe, ok := err.(*PayloadError); ok {
		return NewResponse(pe.Message, http.StatusBadRequest, nil).send(req)
	}

	body := "Internal Server Error"
	if app.Debug {
		body = err.Error()
	}
	sendErr := NewResponse(body, http.StatusInternalServerError, nil).send(req)
	if app.Debug {
		if sendErr != nil {
			return sendErr
		}
		return err
	}
	return sendErr
}

func (app *Application) dispatchWS(scope *Scope, receive Receive, send Send) error {
	ws := newWebSocket(scope, receive, send)

	for _, mw := range app.wsMiddleware {
		if err := mw(ws); err != nil {
			app.emitWSError(ws, nil, err)
			return err
		}
	}

	match := app.router.matchWS(scope.Path)
	if match == nil {
		return ws.Close(1000, "")
	}

	route := match.wsRoute
	scope.Endpoint = route
	scope.PathParams = match.pathParams

	code := app.runWSEndpoint(route, ws)
	if route.OnDisconnect != nil {
		route.OnDisconnect(ws, code)
	}
	return nil
}

// runWSEndpoint runs the connect/receive/disconnect loop for a WebSocket
// endpoint until the client disconnects or an error ends the connection.
func (app *Application) runWSEndpoint(route *WebSocketRoute, ws *WebSocket) (closeCode int) {
	closeCode = 1000

	if err := app.callOnConnect(route, ws); err != nil {
		app.emitWSError(ws, route.Group, err)
		return 1011
	}

	if !route.hasOnReceive() {
		return closeCode
	}

	for {
		msg, err := ws.receiveRaw()
		if err != nil {
			app.emitWSError(ws, route.Group, err)
			return 1011
		}

		if msg.Type == "websocket.disconnect" {
			return msg.Code
		}

		payload, err := decodeWSPayload(route.Encoding, msg)
		if err != nil {
			if _, ok := err.(*PayloadError); ok {
				ws.Close(1003, "")
			}
			app.emitWSError(ws, route.Group, err)
			return 1011
		}

		if err := app.callOnReceive(route, ws, payload); err != nil {
			app.emitWSError(ws, route.Group, err)
			return 1011
		}
	}
}

func (app *Application) callOnConnect(route *WebSocketRoute, ws *WebSocket) (err error) {
	if route.OnConnect == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("relay: panic in websocket on_connect: %v", r)
		}
	}()
	return route.OnConnect(ws)
}

func (app *Application) callOnReceive(route *WebSocketRoute, ws *WebSocket, payload interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("relay: panic in websocket on_receive: %v", r)
		}
	}()
	return route.OnReceive(ws, payload)
}

func decodeWSPayload(encoding WSEncoding, msg Message) (interface{}, error) {
	switch encoding {
	case WSEncodingText:
		if msg.Text == nil {
			return nil, &ProtocolError{Message: "relay: expected a text websocket frame"}
		}
		return *msg.Text, nil
	case WSEncodingBytes:
		return msg.Bytes, nil
	case WSEncodingJSON:
		var v interface{}
		raw := msg.Bytes
		if msg.Text != nil {
			raw = []byte(*msg.Text)
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &PayloadError{Message: "relay: malformed JSON websocket frame: " + err.Error()}
		}
		return v, nil
	default:
		if msg.Text != nil {
			return *msg.Text, nil
		}
		return msg.Bytes, nil
	}
}

// emitWSError runs the WebSocket analogue of the HTTP error pipeline: the
// Group's OnWSError hook when the Group sets one, otherwise the
// Application's.
func (app *Application) emitWSError(ws *WebSocket, group *Group, err error) {
	if group != nil && group.OnWSError != nil {
		group.OnWSError(ws, err)
		return
	}
	if app.OnWSError != nil {
		app.OnWSError(ws, err)
	}
}
