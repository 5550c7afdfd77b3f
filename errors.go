package relay

import (
	"fmt"
	"net/http"
)

// ConfigurationError reports misuse discovered at registration time, such
// as a duplicate group or a route referencing an unregistered converter.
//
// It is always a programmer error: it never occurs once an Application has
// finished being configured and started serving scopes.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// ConverterNotFound is a ConfigurationError raised when a path pattern
// references a converter id that was never registered.
func ConverterNotFound(id string) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf("relay: converter %q not found", id)}
}

// GroupAlreadyAdded is a ConfigurationError raised when the same Group value
// is registered on an Application more than once.
func GroupAlreadyAdded(name string) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf("relay: the %q group was already added", name)}
}

// ProtocolError reports that the gateway sent a message that is illegal in
// the current state: the wrong message type for the WebSocket state machine,
// or a scope whose Type the dispatcher does not recognize.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string { return e.Message }

// UnexpectedMessage is a ProtocolError describing a message type mismatch in
// the WebSocket state machine.
func UnexpectedMessage(expected []string, received string) *ProtocolError {
	return &ProtocolError{Message: fmt.Sprintf(
		"relay: expected gateway message type %v, received %q instead", expected, received,
	)}
}

// ClientDisconnect reports that the gateway signalled that the peer
// disconnected while a Request's body stream was still being read.
type ClientDisconnect struct{}

func (e *ClientDisconnect) Error() string { return "relay: client disconnected" }

// WebSocketDisconnected reports an operation attempted on a WebSocket whose
// application_state has already reached disconnected.
type WebSocketDisconnected struct{}

func (e *WebSocketDisconnected) Error() string { return "relay: websocket is already disconnected" }

// WebSocketDisconnect carries the close code the remote peer sent when a
// typed receive helper (ReceiveText, ReceiveBytes, ReceiveJSON) observed a
// websocket.disconnect message instead of the expected payload.
type WebSocketDisconnect struct {
	Code int
}

func (e *WebSocketDisconnect) Error() string {
	return fmt.Sprintf("relay: websocket disconnected with code %d", e.Code)
}

// PayloadError reports a malformed request body or a failed decode, and maps
// to a 400 Bad Request response when it escapes a route callback.
type PayloadError struct {
	Message string
}

func (e *PayloadError) Error() string { return e.Message }

// HTTPException lets an endpoint (or the form parser) explicitly signal an
// HTTP-level failure; the dispatcher turns it directly into a Response
// carrying Status, Detail as the body, and Headers merged onto the
// response.
type HTTPException struct {
	Status  int
	Detail  string
	Headers map[string]string
}

func (e *HTTPException) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

// NewHTTPException constructs an HTTPException, defaulting Detail to the
// standard library's status text for status when detail is empty.
func NewHTTPException(status int, detail string, headers map[string]string) *HTTPException {
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &HTTPException{Status: status, Detail: detail, Headers: headers}
}

// DependencyError reports that a feature requires an optional library that
// is not wired into this Application (for example, an encoder for a
// negotiated media type that was never registered).
type DependencyError struct {
	Message string
}

func (e *DependencyError) Error() string { return e.Message }
