package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinPrefixCollapsesSlashes(t *testing.T) {
	assert.Equal(t, "/v1/ping", joinPrefix("/v1/", "//ping"))
	assert.Equal(t, "/v1/ping", joinPrefix("v1", "ping"))
	assert.Equal(t, "/v1", joinPrefix("/v1", "/"))
}

func TestGroupRouteRewritesPathOnAdd(t *testing.T) {
	app := NewApplication()
	g := NewGroup("v1", "/v1")
	g.GET("/ping", func(g *Group, req *Request) (*Response, error) {
		return Ok("pong", nil), nil
	})

	require := assert.New(t)
	require.NoError(app.AddGroup(g, ""))
	require.Len(app.Routes(), 1)
	require.Equal("/v1/ping", app.Routes()[0].Path)
}

func TestGroupAlreadyAddedRejectsReuse(t *testing.T) {
	app := NewApplication()
	g := NewGroup("v1", "/v1")
	g.GET("/ping", func(g *Group, req *Request) (*Response, error) {
		return Ok("pong", nil), nil
	})

	assert.NoError(t, app.AddGroup(g, ""))

	err := app.AddGroup(g, "")
	assert.Error(t, err)
	assert.IsType(t, &ConfigurationError{}, err)
}

func TestGroupPrefixMatchesOnlyUnderPrefix(t *testing.T) {
	app := NewApplication()
	g := NewGroup("v1", "/v1")
	g.GET("/ping", func(g *Group, req *Request) (*Response, error) {
		return Ok("pong", nil), nil
	})
	require := assert.New(t)
	require.NoError(app.AddGroup(g, ""))

	full, _ := app.router.matchHTTP("/v1/ping/", "GET")
	require.NotNil(full)

	full, _ = app.router.matchHTTP("/ping/", "GET")
	require.Nil(full)
}
