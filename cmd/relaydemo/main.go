// Command relaydemo boots a relay.Application behind httpgateway, proving
// the core and its one concrete gateway adapter fit together — the Go
// analogue of air.go's own Serve() entry point, trimmed to what relay needs
// to demonstrate: a handful of routes, a WebSocket echo endpoint, a
// lifespan handler, and the logger and CORS middleware.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/relaygo/relay"
	"github.com/relaygo/relay/httpgateway"
	"github.com/relaygo/relay/middleware"
)

func main() {
	configFile := flag.String("config", "", "path to a JSON/TOML/YAML server config file")
	flag.Parse()

	cfg := relay.NewServerConfig()
	if *configFile != "" {
		if err := relay.LoadServerConfigFile(*configFile, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "relaydemo:", err)
			os.Exit(1)
		}
	}

	logger := relay.NewLogger(cfg.AppName)

	app := relay.NewApplication()
	app.Debug = cfg.DebugMode
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())
	app.OnRouteError = func(req *relay.Request, err error) (*relay.Response, bool) {
		logger.Errorf("route error: %s %s: %v", req.Method(), req.URL().Path, err)
		return nil, false
	}
	app.OnWSError = func(ws *relay.WebSocket, err error) {
		logger.Errorf("websocket error: %v", err)
	}

	registerRoutes(app)

	app.SetLifespan(&relay.LifespanHandler{
		OnStartup: func() (map[string]interface{}, error) {
			logger.Info("starting up")
			return nil, nil
		},
		OnShutdown: func() error {
			logger.Info("shutting down")
			return nil
		},
	})

	server := httpgateway.NewServer(app, httpgateway.Config{
		Address: cfg.Address,
	})

	logger.Infof("listening on %s", cfg.Address)
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal(err)
	}
}

func registerRoutes(app *relay.Application) {
	must(app.Route([]string{"GET"}, "/ping/", func(req *relay.Request) (*relay.Response, error) {
		return relay.Ok("pong", nil), nil
	}))

	must(app.Route([]string{"GET"}, "/users/{id:int}/", func(req *relay.Request) (*relay.Response, error) {
		id := req.PathParams()["id"]
		return relay.Ok(fmt.Sprintf("%v", id), nil), nil
	}))

	static, err := httpgateway.StaticFS("./static", 32*1024*1024)
	if err != nil {
		panic(err)
	}
	must(app.Route([]string{"GET"}, "/static/{path}", static))

	mustWS(app.WS("/ws/echo/", relay.WSEncodingText))
}

func must(r *relay.Route, err error) {
	if err != nil {
		panic(err)
	}
}

func mustWS(r *relay.WebSocketRoute, err error) {
	if err != nil {
		panic(err)
	}
	r.OnConnect = func(ws *relay.WebSocket) error {
		return ws.Accept("", nil)
	}
	r.OnReceive = func(ws *relay.WebSocket, payload interface{}) error {
		text, _ := payload.(string)
		return ws.SendText(text)
	}
	r.OnDisconnect = func(ws *relay.WebSocket, code int) {}
}
