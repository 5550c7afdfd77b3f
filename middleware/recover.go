package middleware

import (
	"fmt"
	"runtime"

	"github.com/relaygo/relay"
)

// RecoverConfig configures Recover, adapted from air's gases/recover.go.
type RecoverConfig struct {
	// StackSize bounds how much of the panicking goroutine's stack is
	// captured for Logger. Defaults to 4KB.
	StackSize int

	// DisableStackAll omits every other goroutine's stack, keeping only
	// the panicking one's.
	DisableStackAll bool

	Logger *relay.Logger
}

// DefaultRecoverConfig is Recover()'s configuration.
var DefaultRecoverConfig = RecoverConfig{
	StackSize: 4 << 10,
	Logger:    relay.NewLogger("relay"),
}

func (c *RecoverConfig) fill() {
	if c.StackSize == 0 {
		c.StackSize = DefaultRecoverConfig.StackSize
	}
	if c.Logger == nil {
		c.Logger = DefaultRecoverConfig.Logger
	}
}

// Recover wraps mw so a panic inside it is logged and turned into an error
// instead of crashing the connection task. relay.Application already
// recovers panics raised directly by a route callback or a Group's
// GroupCheck (application.go's invoke/runGroupCheck); this exists for the
// one place that recovery doesn't reach — the middleware chain itself,
// which runs ahead of routing and outside that recover.
func Recover(mw relay.Middleware) relay.Middleware {
	return RecoverWithConfig(DefaultRecoverConfig, mw)
}

// RecoverWithConfig returns Recover(mw) built from config.
func RecoverWithConfig(config RecoverConfig, mw relay.Middleware) relay.Middleware {
	config.fill()

	return func(req *relay.Request) (resp *relay.Response, err error) {
		defer func() {
			if r := recover(); r != nil {
				stack := make([]byte, config.StackSize)
				length := runtime.Stack(stack, !config.DisableStackAll)
				config.Logger.Errorf("panic recovered: %v\n%s", r, stack[:length])
				err = fmt.Errorf("relay: panic in middleware: %v", r)
			}
		}()
		return mw(req)
	}
}
