// Package middleware provides ordinary relay.Middleware/relay.WSMiddleware
// values built the way air's gases/ package builds its Gas values: each
// file is one concern (CORS, logging, panic recovery), configured through a
// Config struct with a WithConfig constructor and a zero-config shortcut,
// and none of them reach into relay's unexported internals — they are
// written entirely against the public relay API.
package middleware

import "github.com/relaygo/relay"

// Skipper decides whether a request should bypass a piece of middleware
// entirely. Returning true skips it.
type Skipper func(req *relay.Request) bool

// defaultSkipper never skips.
func defaultSkipper(*relay.Request) bool { return false }
