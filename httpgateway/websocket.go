package httpgateway

import (
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/relaygo/relay"
)

// upgrader is shared across connections the way air's websocket.go treats
// gorilla's Upgrader: stateless beyond its buffer sizes, safe for
// concurrent use.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveWebSocket upgrades r, then drives relay.Application.Dispatch with a
// websocket Scope whose receive/send pair is backed by the upgraded
// *websocket.Conn, translating gorilla's frame-oriented API into the
// gateway's websocket.connect/receive/disconnect and
// accept/send/close message shapes.
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	scope := wsScope(r)
	receive, send := wsChannels(conn)

	s.App.Dispatch(scope, receive, send)
}

func wsScope(r *http.Request) *relay.Scope {
	headers := make([]relay.HeaderPair, 0, len(r.Header))
	for name, values := range r.Header {
		for _, v := range values {
			headers = append(headers, relay.HeaderPair{Name: []byte(name), Value: []byte(v)})
		}
	}

	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}

	var client *relay.Address
	if host, portStr, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		port, _ := strconv.Atoi(portStr)
		client = &relay.Address{Host: host, Port: port}
	}

	return &relay.Scope{
		Type:        relay.ScopeWebSocket,
		Path:        r.URL.Path,
		Headers:     headers,
		QueryString: []byte(r.URL.RawQuery),
		Client:      client,
		Scheme:      scheme,
	}
}

// wsChannels adapts one *websocket.Conn to the receive/send pair relay's
// WebSocket state machine drives. The first receive() call always reports
// websocket.connect, matching the client_state machine's expectation
// that a connect message precedes everything else — the
// gateway contract models the upgrade itself as that message, even though
// gorilla's Upgrade has already completed the handshake by the time this
// runs.
func wsChannels(conn *websocket.Conn) (relay.Receive, relay.Send) {
	connectSent := false
	accepted := false

	receive := func() (relay.Message, error) {
		if !connectSent {
			connectSent = true
			return relay.Message{Type: "websocket.connect"}, nil
		}

		mt, data, err := conn.ReadMessage()
		if err != nil {
			if ce, ok := err.(*websocket.CloseError); ok {
				return relay.Message{Type: "websocket.disconnect", Code: ce.Code}, nil
			}
			return relay.Message{Type: "websocket.disconnect", Code: websocket.CloseAbnormalClosure}, nil
		}

		switch mt {
		case websocket.TextMessage:
			text := string(data)
			return relay.Message{Type: "websocket.receive", Text: &text}, nil
		case websocket.BinaryMessage:
			return relay.Message{Type: "websocket.receive", Bytes: data}, nil
		default:
			return relay.Message{Type: "websocket.receive"}, nil
		}
	}

	send := func(msg relay.Message) error {
		switch msg.Type {
		case "websocket.accept":
			accepted = true
			return nil
		case "websocket.send":
			if msg.Text != nil {
				return conn.WriteMessage(websocket.TextMessage, []byte(*msg.Text))
			}
			return conn.WriteMessage(websocket.BinaryMessage, msg.Bytes)
		case "websocket.close":
			if !accepted {
				return nil
			}
			code := msg.Code
			if code == 0 {
				code = websocket.CloseNormalClosure
			}
			return conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(code, msg.Reason),
			)
		}
		return nil
	}

	return receive, send
}
