package middleware

import (
	"encoding/base64"
	"strings"

	"github.com/relaygo/relay"
)

// BasicAuthValidator decides whether a username/password pair is valid.
type BasicAuthValidator func(user, pass string) bool

// BasicAuthConfig configures BasicAuth, adapted from air's
// gases/basic_auth.go.
type BasicAuthConfig struct {
	Skipper   Skipper
	Validator BasicAuthValidator
}

const basicAuthScheme = "Basic"

// BasicAuth returns a relay.Middleware gating every request behind HTTP
// Basic authentication, validated by fn. A missing or malformed
// Authorization header, or a pair fn rejects, short-circuits with a 401
// carrying a WWW-Authenticate challenge — exactly air's gas, just returning
// a relay.Response instead of writing through an air.Context.
func BasicAuth(fn BasicAuthValidator) relay.Middleware {
	return BasicAuthWithConfig(BasicAuthConfig{Skipper: defaultSkipper, Validator: fn})
}

// BasicAuthWithConfig returns a relay.Middleware built from config.
func BasicAuthWithConfig(config BasicAuthConfig) relay.Middleware {
	if config.Skipper == nil {
		config.Skipper = defaultSkipper
	}
	if config.Validator == nil {
		panic("relay: BasicAuth middleware requires a Validator")
	}

	challenge := relay.NewResponse("Unauthorized", 401, map[string]string{
		"www-authenticate": basicAuthScheme + ` realm="Restricted"`,
	})

	return func(req *relay.Request) (*relay.Response, error) {
		if config.Skipper(req) {
			return nil, nil
		}

		auth := req.Header("authorization")
		prefix := basicAuthScheme + " "
		if !strings.HasPrefix(auth, prefix) {
			return challenge, nil
		}

		raw, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
		if err != nil {
			return challenge, nil
		}

		user, pass, ok := strings.Cut(string(raw), ":")
		if !ok || !config.Validator(user, pass) {
			return challenge, nil
		}

		return nil, nil
	}
}
