package relay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLifespanChannels(inbound []Message) (Receive, Send, *[]Message) {
	idx := 0
	outbound := &[]Message{}
	receive := func() (Message, error) {
		if idx >= len(inbound) {
			return Message{}, errors.New("no more lifespan messages")
		}
		m := inbound[idx]
		idx++
		return m, nil
	}
	send := func(m Message) error {
		*outbound = append(*outbound, m)
		return nil
	}
	return receive, send, outbound
}

func TestRunLifespanHappyPath(t *testing.T) {
	started, stopped := false, false
	handler := &LifespanHandler{
		OnStartup:  func() (map[string]interface{}, error) { started = true; return nil, nil },
		OnShutdown: func() error { stopped = true; return nil },
	}
	receive, send, outbound := newTestLifespanChannels([]Message{
		{Type: "lifespan.startup"},
		{Type: "lifespan.shutdown"},
	})

	scope := &Scope{Type: ScopeLifespan}
	require.NoError(t, runLifespan(scope, receive, send, handler))
	assert.True(t, started)
	assert.True(t, stopped)
	require.Len(t, *outbound, 2)
	assert.Equal(t, "lifespan.startup.complete", (*outbound)[0].Type)
	assert.Equal(t, "lifespan.shutdown.complete", (*outbound)[1].Type)
}

func TestRunLifespanMergesStartupState(t *testing.T) {
	handler := &LifespanHandler{
		OnStartup: func() (map[string]interface{}, error) {
			return map[string]interface{}{"db": "conn"}, nil
		},
	}
	receive, send, _ := newTestLifespanChannels([]Message{
		{Type: "lifespan.startup"},
		{Type: "lifespan.shutdown"},
	})

	scope := &Scope{Type: ScopeLifespan, State: map[string]interface{}{}}
	require.NoError(t, runLifespan(scope, receive, send, handler))
	assert.Equal(t, "conn", scope.State["db"])
}

func TestRunLifespanStartupFailureSendsFailedMessage(t *testing.T) {
	handler := &LifespanHandler{
		OnStartup: func() (map[string]interface{}, error) { return nil, errors.New("boom") },
	}
	receive, send, outbound := newTestLifespanChannels([]Message{{Type: "lifespan.startup"}})

	scope := &Scope{Type: ScopeLifespan}
	err := runLifespan(scope, receive, send, handler)
	require.Error(t, err)
	require.Len(t, *outbound, 1)
	assert.Equal(t, "lifespan.startup.failed", (*outbound)[0].Type)
	assert.Equal(t, "boom", (*outbound)[0].FailureMessage)
}

func TestRunLifespanStateWithoutGatewaySupportFails(t *testing.T) {
	handler := &LifespanHandler{
		OnStartup: func() (map[string]interface{}, error) {
			return map[string]interface{}{"db": "conn"}, nil
		},
	}
	receive, send, outbound := newTestLifespanChannels([]Message{{Type: "lifespan.startup"}})

	scope := &Scope{Type: ScopeLifespan, State: nil}
	err := runLifespan(scope, receive, send, handler)
	require.Error(t, err)
	assert.Equal(t, "lifespan.startup.failed", (*outbound)[0].Type)
}

func TestRunLifespanNilHandlerIsANoOp(t *testing.T) {
	receive, send, outbound := newTestLifespanChannels([]Message{
		{Type: "lifespan.startup"},
		{Type: "lifespan.shutdown"},
	})

	scope := &Scope{Type: ScopeLifespan}
	require.NoError(t, runLifespan(scope, receive, send, nil))
	require.Len(t, *outbound, 2)
}
