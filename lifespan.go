package relay

import "fmt"

// LifespanHandler implements application startup and shutdown. OnStartup
// may return a non-nil state map to be merged into Scope.State; a non-nil
// error from either method aborts the handshake.
type LifespanHandler struct {
	OnStartup  func() (map[string]interface{}, error)
	OnShutdown func() error
}

// runLifespan drives the lifespan handshake over receive/send: it waits for
// lifespan.startup, runs handler.OnStartup, merges any returned state into
// scope.State, replies lifespan.startup.complete (or .failed), waits for
// lifespan.shutdown, runs handler.OnShutdown, and replies
// lifespan.shutdown.complete (or .failed).
func runLifespan(scope *Scope, receive Receive, send Send, handler *LifespanHandler) error {
	if handler == nil {
		handler = &LifespanHandler{}
	}

	if _, err := receive(); err != nil {
		return err
	}

	if handler.OnStartup != nil {
		state, err := handler.OnStartup()
		if err != nil {
			return failLifespan(send, "lifespan.startup.failed", err)
		}
		if len(state) > 0 {
			if scope.State == nil {
				return failLifespan(send, "lifespan.startup.failed", fmt.Errorf(
					"relay: gateway does not support state in the lifespan scope",
				))
			}
			for k, v := range state {
				scope.State[k] = v
			}
		}
	}

	if err := send(Message{Type: "lifespan.startup.complete"}); err != nil {
		return err
	}

	if _, err := receive(); err != nil {
		return err
	}

	if handler.OnShutdown != nil {
		if err := handler.OnShutdown(); err != nil {
			return failLifespan(send, "lifespan.shutdown.failed", err)
		}
	}

	return send(Message{Type: "lifespan.shutdown.complete"})
}

func failLifespan(send Send, messageType string, cause error) error {
	send(Message{Type: messageType, FailureMessage: cause.Error()})
	return cause
}
