package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCookieStringBasicSerialization(t *testing.T) {
	c := &Cookie{Name: "session", Value: "abc123", Path: "/", HTTPOnly: true, Secure: true}
	s := c.String()
	assert.Contains(t, s, "session=abc123")
	assert.Contains(t, s, "; Path=/")
	assert.Contains(t, s, "; HttpOnly")
	assert.Contains(t, s, "; Secure")
}

func TestCookieStringRejectsInvalidName(t *testing.T) {
	c := &Cookie{Name: "bad name", Value: "x"}
	assert.Equal(t, "", c.String())
}

func TestCookieStringQuotesValueWithSpace(t *testing.T) {
	c := &Cookie{Name: "greeting", Value: "hello world"}
	assert.Contains(t, c.String(), `greeting="hello world"`)
}

func TestCookieStringMaxAgeZeroAndNegative(t *testing.T) {
	neg := &Cookie{Name: "a", Value: "b", MaxAge: -1}
	assert.Contains(t, neg.String(), "; Max-Age=0")

	pos := &Cookie{Name: "a", Value: "b", MaxAge: 60}
	assert.Contains(t, pos.String(), "; Max-Age=60")

	zero := &Cookie{Name: "a", Value: "b"}
	assert.NotContains(t, zero.String(), "Max-Age")
}

func TestCookieStringOmitsExpiresWhenZero(t *testing.T) {
	c := &Cookie{Name: "a", Value: "b"}
	assert.NotContains(t, c.String(), "Expires")

	c.Expires = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Contains(t, c.String(), "; Expires=")
}

func TestParseCookiesDecodesPairsAndURLUnescapes(t *testing.T) {
	got := ParseCookies("a=1; b=hello%20world;  c = raw ")
	assert.Equal(t, "1", got["a"])
	assert.Equal(t, "hello world", got["b"])
	assert.Equal(t, "raw", got["c"])
}

func TestParseCookiesEmptyHeader(t *testing.T) {
	assert.Empty(t, ParseCookies(""))
}

func TestParseCookiesSkipsInvalidNames(t *testing.T) {
	got := ParseCookies("bad name=1; good=2")
	assert.NotContains(t, got, "bad name")
	assert.Equal(t, "2", got["good"])
}
