package relay

import "encoding/json"

// WSState is one side of a WebSocket's dual state machine
// Both client_state and application_state start at connecting and move
// monotonically connecting -> connected -> disconnected; neither ever moves
// backward.
type WSState int

// Recognized WSState values.
const (
	WSConnecting WSState = iota
	WSConnected
	WSDisconnected
)

// WebSocket is a handle over one WebSocket Scope, tracking a dual state
// machine: clientState reflects what the gateway has told us about the
// peer, applicationState reflects what we have told the gateway about
// ourselves.
type WebSocket struct {
	scope   *Scope
	receive Receive
	send    Send

	clientState      WSState
	applicationState WSState

	urlValue      *URL
	queryValue    map[string][]string
	queryParsed   bool
	cookiesValue  map[string]string
	cookiesParsed bool
	headersValue  map[string]string
	headersParsed bool
}

// newWebSocket builds a WebSocket over scope, both state fields starting at
// WSConnecting
func newWebSocket(scope *Scope, receive Receive, send Send) *WebSocket {
	return &WebSocket{scope: scope, receive: receive, send: send}
}

// App returns the Application dispatching this connection.
func (ws *WebSocket) App() interface{} { return ws.scope.App }

// Endpoint returns the WebSocketRoute chosen for this connection.
func (ws *WebSocket) Endpoint() interface{} { return ws.scope.Endpoint }

// PathParams returns the decoded path parameters the router produced.
func (ws *WebSocket) PathParams() map[string]interface{} { return ws.scope.PathParams }

// Headers returns the connection's headers, lower-cased and cached.
func (ws *WebSocket) Headers() map[string]string {
	if !ws.headersParsed {
		h := make(map[string]string, len(ws.scope.Headers))
		for _, pair := range ws.scope.Headers {
			h[toLowerASCII(string(pair.Name))] = string(pair.Value)
		}
		ws.headersValue = h
		ws.headersParsed = true
	}
	return ws.headersValue
}

// Cookies returns the cookies sent when the connection was opened.
func (ws *WebSocket) Cookies() map[string]string {
	if !ws.cookiesParsed {
		ws.cookiesValue = ParseCookies(ws.Headers()["cookie"])
		ws.cookiesParsed = true
	}
	return ws.cookiesValue
}

// QueryParams returns the connection's parsed query string.
func (ws *WebSocket) QueryParams() map[string][]string {
	if !ws.queryParsed {
		ws.queryValue, ws.queryParsed = parseQueryString(ws.scope.QueryString), true
	}
	return ws.queryValue
}

// ClientState returns the client side of the dual state machine.
func (ws *WebSocket) ClientState() WSState { return ws.clientState }

// ApplicationState returns the application side of the dual state machine.
func (ws *WebSocket) ApplicationState() WSState { return ws.applicationState }

// receiveRaw pulls the next gateway message, enforcing the client_state
// transitions of : connecting requires a websocket.connect
// message before anything else is legal, connected accepts
// websocket.receive or websocket.disconnect, and once client_state reaches
// disconnected any further call is a *ProtocolError.
func (ws *WebSocket) receiveRaw() (Message, error) {
	switch ws.clientState {
	case WSConnecting:
		msg, err := ws.receive()
		if err != nil {
			return Message{}, err
		}
		if msg.Type != "websocket.connect" {
			return Message{}, UnexpectedMessage([]string{"websocket.connect"}, msg.Type)
		}
		ws.clientState = WSConnected
		return msg, nil
	case WSConnected:
		msg, err := ws.receive()
		if err != nil {
			return Message{}, err
		}
		switch msg.Type {
		case "websocket.disconnect":
			ws.clientState = WSDisconnected
		case "websocket.receive":
		default:
			return Message{}, UnexpectedMessage([]string{"websocket.disconnect", "websocket.receive"}, msg.Type)
		}
		return msg, nil
	default:
		return Message{}, &ProtocolError{Message: "relay: websocket disconnect message has already been received"}
	}
}

// sendRaw pushes a gateway message, enforcing the application_state
// transitions of : while connecting only accept/close are legal
// and either one settles application_state; once connected only send/close
// are legal; once disconnected every call is a *WebSocketDisconnected.
func (ws *WebSocket) sendRaw(msg Message) error {
	switch ws.applicationState {
	case WSConnecting:
		if msg.Type != "websocket.accept" && msg.Type != "websocket.close" {
			return &ProtocolError{Message: "relay: expected gateway message type \"websocket.accept\" or \"websocket.close\" before accept, received \"" + msg.Type + "\" instead"}
		}
		if msg.Type == "websocket.close" {
			ws.applicationState = WSDisconnected
		} else {
			ws.applicationState = WSConnected
		}
		return ws.send(msg)
	case WSConnected:
		if msg.Type != "websocket.send" && msg.Type != "websocket.close" {
			return &ProtocolError{Message: "relay: expected gateway message type \"websocket.send\" or \"websocket.close\", received \"" + msg.Type + "\" instead"}
		}
		if msg.Type == "websocket.close" {
			ws.applicationState = WSDisconnected
		}
		return ws.send(msg)
	default:
		return &WebSocketDisconnected{}
	}
}

// Accept completes the WebSocket handshake, waiting for the inbound
// websocket.connect message if it has not arrived yet, then sending
// websocket.accept with the given subprotocol (empty for none) and any
// extra headers.
func (ws *WebSocket) Accept(subprotocol string, headers []HeaderPair) error {
	if ws.clientState == WSConnecting {
		if _, err := ws.receiveRaw(); err != nil {
			return err
		}
	}

	msg := Message{Type: "websocket.accept", WSHeaders: headers}
	if subprotocol != "" {
		msg.Subprotocol = &subprotocol
	}
	return ws.sendRaw(msg)
}

// raiseOnDisconnect turns an observed websocket.disconnect message into a
// *WebSocketDisconnect error carrying the peer's close code.
func raiseOnDisconnect(msg Message) error {
	if msg.Type == "websocket.disconnect" {
		return &WebSocketDisconnect{Code: msg.Code}
	}
	return nil
}

func (ws *WebSocket) requireConnected() error {
	if ws.applicationState != WSConnected {
		return &ProtocolError{Message: "relay: websocket is not connected, call Accept first"}
	}
	return nil
}

// ReceiveText blocks for the next text frame, returning a *WebSocketDisconnect
// if the peer disconnected instead.
func (ws *WebSocket) ReceiveText() (string, error) {
	if err := ws.requireConnected(); err != nil {
		return "", err
	}
	msg, err := ws.receiveRaw()
	if err != nil {
		return "", err
	}
	if err := raiseOnDisconnect(msg); err != nil {
		return "", err
	}
	if msg.Text == nil {
		return "", &ProtocolError{Message: "relay: expected a text websocket frame"}
	}
	return *msg.Text, nil
}

// ReceiveBytes blocks for the next binary frame, returning a
// *WebSocketDisconnect if the peer disconnected instead.
func (ws *WebSocket) ReceiveBytes() ([]byte, error) {
	if err := ws.requireConnected(); err != nil {
		return nil, err
	}
	msg, err := ws.receiveRaw()
	if err != nil {
		return nil, err
	}
	if err := raiseOnDisconnect(msg); err != nil {
		return nil, err
	}
	return msg.Bytes, nil
}

// ReceiveJSON blocks for the next frame and decodes it as JSON. binary
// selects whether the payload is expected as a binary or text frame.
// Malformed JSON sends a 1003 close before returning the decode error.
func (ws *WebSocket) ReceiveJSON(binary bool, out interface{}) error {
	if err := ws.requireConnected(); err != nil {
		return err
	}
	msg, err := ws.receiveRaw()
	if err != nil {
		return err
	}
	if err := raiseOnDisconnect(msg); err != nil {
		return err
	}

	var raw []byte
	if binary {
		raw = msg.Bytes
	} else if msg.Text != nil {
		raw = []byte(*msg.Text)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		ws.Close(1003, "")
		return &PayloadError{Message: "relay: malformed JSON websocket frame: " + err.Error()}
	}
	return nil
}

// IterText calls fn with each text frame until the peer disconnects, then
// returns nil. Any other error from ReceiveText stops iteration and is
// returned.
func (ws *WebSocket) IterText(fn func(string) error) error {
	for {
		text, err := ws.ReceiveText()
		if _, ok := err.(*WebSocketDisconnect); ok {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(text); err != nil {
			return err
		}
	}
}

// IterBytes calls fn with each binary frame until the peer disconnects, then
// returns nil.
func (ws *WebSocket) IterBytes(fn func([]byte) error) error {
	for {
		b, err := ws.ReceiveBytes()
		if _, ok := err.(*WebSocketDisconnect); ok {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
	}
}

// SendText sends a text frame.
func (ws *WebSocket) SendText(data string) error {
	return ws.sendRaw(Message{Type: "websocket.send", Text: &data})
}

// SendBytes sends a binary frame.
func (ws *WebSocket) SendBytes(data []byte) error {
	return ws.sendRaw(Message{Type: "websocket.send", Bytes: data})
}

// SendJSON encodes data as JSON and sends it as a text or binary frame
// depending on binary.
func (ws *WebSocket) SendJSON(data interface{}, binary bool) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if binary {
		return ws.SendBytes(raw)
	}
	text := string(raw)
	return ws.sendRaw(Message{Type: "websocket.send", Text: &text})
}

// Close sends a websocket.close frame with the given code and reason.
func (ws *WebSocket) Close(code int, reason string) error {
	return ws.sendRaw(Message{Type: "websocket.close", Code: code, Reason: reason})
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}
