package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQueryStringEmptyIsNil(t *testing.T) {
	assert.Nil(t, parseQueryString(nil))
	assert.Nil(t, parseQueryString([]byte("")))
}

func TestParseQueryStringRepeatedKeysBecomeList(t *testing.T) {
	got := parseQueryString([]byte("a=1&a=2&b=3"))
	assert.Equal(t, []string{"1", "2"}, got["a"])
	assert.Equal(t, []string{"3"}, got["b"])
}

func TestParseQueryStringMalformedIsNil(t *testing.T) {
	assert.Nil(t, parseQueryString([]byte("%zz")))
}

func TestURLStringComposesSchemeHostPathQuery(t *testing.T) {
	u := &URL{Scheme: "https", Host: "example.com", Path: "/a/b", Query: "x=1"}
	assert.Equal(t, "https://example.com/a/b?x=1", u.String())
}

func TestURLStringInsertsLeadingSlashWhenHostPresent(t *testing.T) {
	u := &URL{Host: "example.com", Path: "a/b"}
	assert.Equal(t, "//example.com/a/b", u.String())
}

func TestURLStringWithoutSchemeOrHost(t *testing.T) {
	u := &URL{Path: "/just/a/path"}
	assert.Equal(t, "/just/a/path", u.String())
}

func TestURLWithPathClearsQuery(t *testing.T) {
	u := &URL{Scheme: "http", Host: "example.com", Path: "/a", Query: "x=1"}
	base := u.withPath("/")
	assert.Equal(t, "/", base.Path)
	assert.Equal(t, "", base.Query)
	assert.Equal(t, "http://example.com/", base.String())
}
