package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *router {
	t.Helper()
	return newRouter(NewConverterRegistry())
}

func addRoute(t *testing.T, rt *router, methods []string, path string) *Route {
	t.Helper()
	r := &Route{Path: path, Methods: newHTTPMethodSet(methods...)}
	require.NoError(t, rt.add(r))
	return r
}

func TestMatchHTTPIntegerPathParameter(t *testing.T) {
	rt := newTestRouter(t)
	addRoute(t, rt, []string{"GET"}, "/users/{id:int}")

	full, partial := rt.matchHTTP("/users/42", "GET")
	require.NotNil(t, full)
	assert.Nil(t, partial)
	assert.Equal(t, int64(42), full.pathParams["id"])

	full, partial = rt.matchHTTP("/users/abc", "GET")
	assert.Nil(t, full)
	assert.Nil(t, partial)
}

func TestMatchHTTPMethodFallback(t *testing.T) {
	rt := newTestRouter(t)
	addRoute(t, rt, []string{"POST"}, "/items/")

	full, partial := rt.matchHTTP("/items/", "GET")
	assert.Nil(t, full)
	require.NotNil(t, partial)

	full, partial = rt.matchHTTP("/items/", "POST")
	require.NotNil(t, full)
	assert.Nil(t, partial)
}

func TestMatchHTTPTrailingSlashNormalization(t *testing.T) {
	rt := newTestRouter(t)
	addRoute(t, rt, []string{"GET"}, "/a/b")

	full, _ := rt.matchHTTP("/a/b", "GET")
	require.NotNil(t, full)

	full, _ = rt.matchHTTP("/a/b/", "GET")
	require.NotNil(t, full)
}

func TestMatchHTTPRegistrationOrderDeterminesWinner(t *testing.T) {
	rt := newTestRouter(t)
	first := addRoute(t, rt, []string{"GET"}, "/a/{x}")
	second := addRoute(t, rt, []string{"GET"}, "/a/{y:int}")

	full, _ := rt.matchHTTP("/a/42", "GET")
	require.NotNil(t, full)
	assert.Same(t, first, full.route, "earliest-registered route must win on full match")
	_ = second
}

func TestMatchHTTPFirstPartialMatchWinsFor405(t *testing.T) {
	rt := newTestRouter(t)
	first := addRoute(t, rt, []string{"POST"}, "/a/")
	addRoute(t, rt, []string{"PUT"}, "/a/")

	_, partial := rt.matchHTTP("/a/", "GET")
	require.NotNil(t, partial)
	assert.Same(t, first, partial)
}

func TestMatchWSDecodesPathParamsAndMissesUnknownPath(t *testing.T) {
	rt := newTestRouter(t)
	r := &WebSocketRoute{Path: "/ws/{room}", Encoding: WSEncodingText}
	require.NoError(t, rt.addWS(r))

	match := rt.matchWS("/ws/lobby")
	require.NotNil(t, match)
	assert.Equal(t, "lobby", match.pathParams["room"])

	assert.Nil(t, rt.matchWS("/does/not/exist"))
}
