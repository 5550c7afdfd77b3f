// Package httpgateway is the one concrete gateway transport this repo
// ships: a net/http + gorilla/websocket implementation of the scope and
// receive/send contract relay's core dispatches against. It is
// an external collaborator, not part of the core — relay.Application never
// imports it; this package imports relay and drives it.
//
// Grounded on air's server.go (pool reuse, one Handler wired to an
// ) and listener.go (TCP keep-alive, optional TLS/ACME), adapted from air's
// fasthttp transport to net/http because the gateway contract streams an
// inbound body as discrete http.request messages and sends a response as
// discrete http.response.start/http.response.body messages — a shape
// net/http's Request.Body reader and ResponseWriter already expose directly,
// without fasthttp's buffer-reuse constraints getting in the way of handing
// those buffers to another goroutine's receive/send channels.
package httpgateway

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/relaygo/relay"
)

// Config holds the settings server.go's air.Config analogue needs: address,
// timeouts and optional TLS/ACME, mirroring the matching fields of
// relay.ServerConfig (see ../config.go) but filled in by the caller rather
// than decoded from a file; it is kept separate because it is
// gateway-specific (Listener, ACME) rather than core-specific.
type Config struct {
	Address string

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	TLSCertFile string
	TLSKeyFile  string

	ACMEEnabled       bool
	ACMEDirectoryURL  string
	ACMECertRoot      string
	ACMEHostWhitelist []string

	// Listener overrides the default TCP listener address.Address binds.
	Listener net.Listener
}

// Server adapts a relay.Application onto net/http, translating each
// incoming *http.Request into one relay.Scope plus the receive/send pair
// relay.Application.Dispatch expects's HTTP message shapes.
type Server struct {
	App    *relay.Application
	Config Config

	httpServer *http.Server
}

// NewServer returns a Server wiring app behind config.
func NewServer(app *relay.Application, config Config) *Server {
	s := &Server{App: app, Config: config}

	h := http.Handler(http.HandlerFunc(s.serveHTTP))
	s.httpServer = &http.Server{
		Addr:              config.Address,
		Handler:           h2c.NewHandler(h, &http2.Server{}),
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}

	return s
}

// ListenAndServe starts the server, choosing a TLS mode the way air's
// server.go's start/startDefaultListener/startCustomListener chooses one:
// ACME autocert first, then a static cert/key pair, then plain HTTP. In
// every mode a caller-supplied Config.Listener, when set, is served on
// instead of a listener bound to Config.Address.
func (s *Server) ListenAndServe() error {
	switch {
	case s.Config.ACMEEnabled:
		return s.listenAndServeACME()
	case s.Config.TLSCertFile != "" && s.Config.TLSKeyFile != "":
		if s.Config.Listener != nil {
			return s.httpServer.ServeTLS(s.Config.Listener, s.Config.TLSCertFile, s.Config.TLSKeyFile)
		}
		return s.httpServer.ListenAndServeTLS(s.Config.TLSCertFile, s.Config.TLSKeyFile)
	case s.Config.Listener != nil:
		return s.httpServer.Serve(s.Config.Listener)
	default:
		return s.httpServer.ListenAndServe()
	}
}

// listenAndServeACME serves TLS certificates minted by an ACME directory
// (letsencrypt.org by default), adapted from air.go's ACME wiring: a
// autocert.Manager backed by a DirCache rooted at Config.ACMECertRoot,
// restricted to Config.ACMEHostWhitelist when set.
func (s *Server) listenAndServeACME() error {
	m := &autocert.Manager{
		Prompt: autocert.AcceptTOS,
		Cache:  autocert.DirCache(s.Config.ACMECertRoot),
		Client: &acme.Client{DirectoryURL: s.Config.ACMEDirectoryURL},
	}
	if len(s.Config.ACMEHostWhitelist) > 0 {
		m.HostPolicy = autocert.HostWhitelist(s.Config.ACMEHostWhitelist...)
	}

	s.httpServer.TLSConfig = &tls.Config{GetCertificate: m.GetCertificate}

	ln := s.Config.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.Config.Address)
		if err != nil {
			return err
		}
	}
	return s.httpServer.ServeTLS(tls.NewListener(ln, s.httpServer.TLSConfig), "", "")
}

// Shutdown gracefully stops accepting new connections, letting in-flight
// dispatches finish's "task runs to completion" model.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// serveHTTP is the http.HandlerFunc registered on the underlying
// http.Server. A WebSocket upgrade request is detected from its headers and
// handed to serveWebSocket instead.
func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if isWebSocketUpgrade(r) {
		s.serveWebSocket(w, r)
		return
	}

	scope := httpScope(r)
	receive, send := s.httpChannels(w, r)
	if err := s.App.Dispatch(scope, receive, send); err != nil {
		// A ProtocolError here means the core itself refused to run
		// (e.g. an unknown scope type); nothing has been written to
		// w yet in that case, so a generic 500 is still accurate.
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func isWebSocketUpgrade(r *http.Request) bool {
	return httpguts.HeaderValuesContainsToken(r.Header["Connection"], "upgrade") &&
		httpguts.HeaderValuesContainsToken(r.Header["Upgrade"], "websocket")
}

func httpScope(r *http.Request) *relay.Scope {
	headers := make([]relay.HeaderPair, 0, len(r.Header))
	for name, values := range r.Header {
		for _, v := range values {
			headers = append(headers, relay.HeaderPair{Name: []byte(name), Value: []byte(v)})
		}
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	var client *relay.Address
	if host, portStr, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		port, _ := strconv.Atoi(portStr)
		client = &relay.Address{Host: host, Port: port}
	}

	return &relay.Scope{
		Type:        relay.ScopeHTTP,
		Path:        r.URL.Path,
		Headers:     headers,
		QueryString: []byte(r.URL.RawQuery),
		Method:      r.Method,
		Client:      client,
		Scheme:      scheme,
		HTTPVersion: r.Proto,
		RootPath:    "",
	}
}

// httpChannels builds the receive/send pair for one HTTP request: receive
// streams r.Body in fixed-size chunks as http.request messages, send
// applies an http.response.start message's status/headers to w then writes
// an http.response.body message's bytes
func (s *Server) httpChannels(w http.ResponseWriter, r *http.Request) (relay.Receive, relay.Send) {
	const chunkSize = 64 * 1024
	buf := make([]byte, chunkSize)
	bodyDone := false

	receive := func() (relay.Message, error) {
		if bodyDone {
			return relay.Message{}, nil
		}
		n, err := r.Body.Read(buf)
		if n > 0 {
			more := err == nil
			if err != nil {
				bodyDone = true
			}
			return relay.Message{Type: "http.request", Body: append([]byte(nil), buf[:n]...), MoreBody: more}, nil
		}
		bodyDone = true
		return relay.Message{Type: "http.request", Body: nil, MoreBody: false}, nil
	}

	send := func(msg relay.Message) error {
		switch msg.Type {
		case "http.response.start":
			for _, h := range msg.HTTPHeaders {
				w.Header().Add(string(h.Name), string(h.Value))
			}
			w.WriteHeader(msg.Status)
		case "http.response.body":
			_, err := w.Write(msg.Body)
			return err
		}
		return nil
	}

	return receive, send
}

