package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWebSocket(inbound []Message) (*WebSocket, *[]Message) {
	idx := 0
	outbound := &[]Message{}
	receive := func() (Message, error) {
		if idx >= len(inbound) {
			return Message{}, &ClientDisconnect{}
		}
		m := inbound[idx]
		idx++
		return m, nil
	}
	send := func(m Message) error {
		*outbound = append(*outbound, m)
		return nil
	}
	return newWebSocket(&Scope{Type: ScopeWebSocket}, receive, send), outbound
}

func TestWebSocketAcceptTransitionsBothStates(t *testing.T) {
	ws, outbound := newTestWebSocket([]Message{{Type: "websocket.connect"}})

	require.NoError(t, ws.Accept("", nil))
	assert.Equal(t, WSConnected, ws.ClientState())
	assert.Equal(t, WSConnected, ws.ApplicationState())
	require.Len(t, *outbound, 1)
	assert.Equal(t, "websocket.accept", (*outbound)[0].Type)
}

func TestWebSocketSendBeforeAcceptIsProtocolError(t *testing.T) {
	ws, _ := newTestWebSocket(nil)
	err := ws.SendText("too soon")
	assert.IsType(t, &ProtocolError{}, err)
}

func TestWebSocketReceiveTextRoundTrip(t *testing.T) {
	text := "hello"
	ws, _ := newTestWebSocket([]Message{
		{Type: "websocket.connect"},
		{Type: "websocket.receive", Text: &text},
	})
	require.NoError(t, ws.Accept("", nil))

	got, err := ws.ReceiveText()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestWebSocketReceiveTextSurfacesDisconnect(t *testing.T) {
	ws, _ := newTestWebSocket([]Message{
		{Type: "websocket.connect"},
		{Type: "websocket.disconnect", Code: 1001},
	})
	require.NoError(t, ws.Accept("", nil))

	_, err := ws.ReceiveText()
	require.Error(t, err)
	disc, ok := err.(*WebSocketDisconnect)
	require.True(t, ok)
	assert.Equal(t, 1001, disc.Code)
}

func TestWebSocketOperationsAfterDisconnectFail(t *testing.T) {
	ws, _ := newTestWebSocket([]Message{{Type: "websocket.connect"}})
	require.NoError(t, ws.Accept("", nil))
	require.NoError(t, ws.Close(1000, "bye"))

	err := ws.SendText("too late")
	assert.IsType(t, &WebSocketDisconnected{}, err)
}

func TestWebSocketUnexpectedClientMessageIsProtocolError(t *testing.T) {
	ws, _ := newTestWebSocket([]Message{{Type: "not-a-real-type"}})
	_, err := ws.receiveRaw()
	assert.IsType(t, &ProtocolError{}, err)
}
