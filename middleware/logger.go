package middleware

import (
	"time"

	"github.com/relaygo/relay"
)

// LoggerConfig configures the request logger middleware, adapted from
// air's gases/logger.go LoggerConfig — with one structural change: relay's
// Middleware runs only before routing, it never sees the
// Response a route callback eventually produces, so unlike air's Logger
// (which wraps the whole handler chain and can report status/latency/size)
// this one logs the inbound request line only.
type LoggerConfig struct {
	Skipper Skipper
	Logger  *relay.Logger
}

// DefaultLoggerConfig writes through a relay.Logger named "relay".
var DefaultLoggerConfig = LoggerConfig{
	Skipper: defaultSkipper,
	Logger:  relay.NewLogger("relay"),
}

func (c *LoggerConfig) fill() {
	if c.Skipper == nil {
		c.Skipper = DefaultLoggerConfig.Skipper
	}
	if c.Logger == nil {
		c.Logger = DefaultLoggerConfig.Logger
	}
}

// Logger returns a relay.Middleware logging every inbound request.
func Logger() relay.Middleware { return LoggerWithConfig(DefaultLoggerConfig) }

// LoggerWithConfig returns a relay.Middleware built from config.
func LoggerWithConfig(config LoggerConfig) relay.Middleware {
	config.fill()

	return func(req *relay.Request) (*relay.Response, error) {
		if config.Skipper(req) {
			return nil, nil
		}

		client := ""
		if addr := req.Client(); addr != nil {
			client = addr.Host
		}

		config.Logger.Infof(
			"%s %s %s %s",
			time.Now().Format(time.RFC3339), client, req.Method(), req.URL().Path,
		)
		return nil, nil
	}
}
