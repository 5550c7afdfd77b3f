package middleware

import (
	"strconv"
	"strings"

	"github.com/relaygo/relay"
)

// CORSConfig configures the CORS middleware's origin/method/header
// allow-list negotiation, shaped the way air's gases/cors.go shapes its
// CORSConfig.
type CORSConfig struct {
	Skipper Skipper

	// AllowOrigins lists origins permitted to access the resource.
	// Defaults to []string{"*"}.
	AllowOrigins []string

	// AllowHeaders lists request headers permitted on the actual
	// request, echoed back on a preflight response.
	AllowHeaders []string

	// AllowCredentials marks the response as exposable when the
	// request was sent with credentials.
	AllowCredentials bool

	// ExposeHeaders lists response headers the browser is allowed to
	// surface to the requesting script.
	ExposeHeaders []string

	// MaxAge is how long, in seconds, a preflight response may be
	// cached. Zero omits the header.
	MaxAge int
}

// DefaultCORSConfig is CORS()'s configuration.
var DefaultCORSConfig = CORSConfig{
	Skipper:      defaultSkipper,
	AllowOrigins: []string{"*"},
}

func (c *CORSConfig) fill() {
	if c.Skipper == nil {
		c.Skipper = DefaultCORSConfig.Skipper
	}
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = DefaultCORSConfig.AllowOrigins
	}
}

// CORS returns a relay.Middleware enforcing DefaultCORSConfig.
func CORS() relay.Middleware { return CORSWithConfig(DefaultCORSConfig) }

// CORSWithConfig returns a relay.Middleware built from config. Since
// relay.Middleware can only short-circuit dispatch, not post-process a
// Response the route goes on to build, only the preflight (OPTIONS) case is
// handled here: a preflight request with an Origin header gets its CORS
// response headers and a 204 short-circuit. A non-preflight request is left
// to the route itself.
func CORSWithConfig(config CORSConfig) relay.Middleware {
	config.fill()
	allowHeaders := strings.Join(config.AllowHeaders, ",")
	exposeHeaders := strings.Join(config.ExposeHeaders, ",")

	return func(req *relay.Request) (*relay.Response, error) {
		if config.Skipper(req) {
			return nil, nil
		}

		origin := req.Header("origin")
		if origin == "" {
			return nil, nil
		}

		allowedOrigin := ""
		for _, o := range config.AllowOrigins {
			if o == "*" || o == origin {
				allowedOrigin = o
				break
			}
		}
		if allowedOrigin == "" {
			return nil, nil
		}

		headers := map[string]string{
			"vary":                        "Origin",
			"access-control-allow-origin": allowedOrigin,
		}
		if config.AllowCredentials {
			headers["access-control-allow-credentials"] = "true"
		}
		if exposeHeaders != "" {
			headers["access-control-expose-headers"] = exposeHeaders
		}

		if req.Method() != "OPTIONS" {
			return nil, nil
		}

		headers["access-control-allow-methods"] = "GET,HEAD,PUT,PATCH,POST,DELETE"
		if allowHeaders != "" {
			headers["access-control-allow-headers"] = allowHeaders
		} else if reqHeaders := req.Header("access-control-request-headers"); reqHeaders != "" {
			headers["access-control-allow-headers"] = reqHeaders
		}
		if config.MaxAge > 0 {
			headers["access-control-max-age"] = strconv.Itoa(config.MaxAge)
		}

		resp := relay.NewResponse(nil, 204, headers)
		return resp, nil
	}
}
