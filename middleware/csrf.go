package middleware

import (
	"crypto/subtle"

	"github.com/relaygo/relay"
)

// CSRFConfig configures CSRF, adapted from air's gases/csrf.go double-submit
// design: the client must echo, in a header, the same token it was given in
// a cookie. Unlike air's gas (which wraps the whole handler and can mint and
// set that cookie itself on the way out), relay.Middleware runs only ahead
// of routing and cannot attach a Set-Cookie to a Response it doesn't own —
// so this middleware validates an existing token, and minting/renewing the
// cookie is left to whatever route sets a session (e.g. a login handler
// calling relay.Cookie directly).
type CSRFConfig struct {
	Skipper Skipper

	// CookieName names the cookie carrying the token the client was
	// issued. Defaults to "_csrf".
	CookieName string

	// HeaderName names the request header the client must echo the
	// token back on for unsafe methods. Defaults to "X-CSRF-Token".
	HeaderName string
}

// DefaultCSRFConfig is CSRF()'s configuration.
var DefaultCSRFConfig = CSRFConfig{
	Skipper:    defaultSkipper,
	CookieName: "_csrf",
	HeaderName: "X-CSRF-Token",
}

func (c *CSRFConfig) fill() {
	if c.Skipper == nil {
		c.Skipper = DefaultCSRFConfig.Skipper
	}
	if c.CookieName == "" {
		c.CookieName = DefaultCSRFConfig.CookieName
	}
	if c.HeaderName == "" {
		c.HeaderName = DefaultCSRFConfig.HeaderName
	}
}

var csrfSafeMethods = map[string]bool{"GET": true, "HEAD": true, "OPTIONS": true, "TRACE": true}

// CSRF returns a relay.Middleware rejecting unsafe requests (everything but
// GET/HEAD/OPTIONS/TRACE) whose HeaderName token doesn't match CookieName's
// cookie, with a 403.
func CSRF() relay.Middleware { return CSRFWithConfig(DefaultCSRFConfig) }

// CSRFWithConfig returns a relay.Middleware built from config.
func CSRFWithConfig(config CSRFConfig) relay.Middleware {
	config.fill()
	forbidden := relay.NewResponse("csrf token missing or invalid", 403, nil)

	return func(req *relay.Request) (*relay.Response, error) {
		if config.Skipper(req) || csrfSafeMethods[req.Method()] {
			return nil, nil
		}

		cookieToken, ok := req.Cookies()[config.CookieName]
		if !ok || cookieToken == "" {
			return forbidden, nil
		}

		headerToken := req.Header(config.HeaderName)
		if headerToken == "" {
			return forbidden, nil
		}

		if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) != 1 {
			return forbidden, nil
		}

		return nil, nil
	}
}
