package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOkStatusDependsOnData(t *testing.T) {
	assert.Equal(t, 201, Ok(nil, nil).Status)
	assert.Equal(t, 200, Ok("hi", nil).Status)
}

func TestMethodNotAllowedDefaultsBody(t *testing.T) {
	r := MethodNotAllowed(nil, nil)
	body, _, err := r.encode("application/json")
	require.NoError(t, err)
	assert.Equal(t, "Method Not Allowed", string(body))
}

func TestEncodeNegotiatesAccept(t *testing.T) {
	r := NewResponse(map[string]interface{}{"a": 1}, 200, nil)

	body, ct, err := r.encode("application/json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", ct)
	assert.JSONEq(t, `{"a":1}`, string(body))

	body, ct, err = r.encode("application/x-yaml")
	require.NoError(t, err)
	assert.Equal(t, "application/yaml", ct)
	assert.Contains(t, string(body), "a: 1")

	body, ct, err = r.encode("application/toml")
	require.NoError(t, err)
	assert.Equal(t, "application/toml", ct)
	assert.Contains(t, string(body), "a = 1")

	body, ct, err = r.encode("application/msgpack")
	require.NoError(t, err)
	assert.Equal(t, "application/msgpack", ct)
	assert.NotEmpty(t, body)
}

func TestEncodeUnrecognizedAcceptFallsBackToJSON(t *testing.T) {
	r := NewResponse("hi", 200, nil)
	body, ct, err := r.encode("application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ct)
	assert.Equal(t, "hi", string(body))
}

func TestWithMediaTypeOverridesNegotiation(t *testing.T) {
	r := NewResponse(map[string]interface{}{"a": 1}, 200, nil).WithMediaType("application/toml")
	body, ct, err := r.encode("application/json")
	require.NoError(t, err)
	assert.Equal(t, "application/toml", ct)
	assert.Contains(t, string(body), "a = 1")
}

func TestRedirectIsA200WithQuotedLocation(t *testing.T) {
	r := Redirect("/a b?x=1&y=2", nil)
	assert.Equal(t, 200, r.Status)
	assert.Equal(t, "/a%20b?x=1&y=2", r.Headers["location"])
}

func TestRedirectPreservesSafeCharacters(t *testing.T) {
	r := Redirect("https://example.com/a/b?q=x+y#frag", nil)
	assert.Equal(t, "https://example.com/a/b?q=x+y#frag", r.Headers["location"])
}

func TestSendOrdersHeadersDeterministically(t *testing.T) {
	r := NewResponse("hi", 200, map[string]string{
		"x-zeta":  "1",
		"x-alpha": "2",
		"x-mu":    "3",
	})

	scope := &Scope{Type: ScopeHTTP}
	for i := 0; i < 5; i++ {
		var sent []Message
		req := newRequest(scope, nil, func(m Message) error {
			sent = append(sent, m)
			return nil
		})
		require.NoError(t, r.send(req))
		require.Len(t, sent, 2)

		var names []string
		for _, h := range sent[0].HTTPHeaders {
			names = append(names, string(h.Name))
		}
		assert.Equal(t, []string{"content-length", "content-type", "x-alpha", "x-mu", "x-zeta"}, names)
	}
}

func TestSendEmitsSetCookieForEachQueuedCookie(t *testing.T) {
	r := NewResponse("hi", 200, nil).
		SetCookie(&Cookie{Name: "a", Value: "1"}).
		SetCookie(&Cookie{Name: "bad name", Value: "2"}).
		SetCookie(&Cookie{Name: "b", Value: "2"})

	var sent []Message
	req := newRequest(&Scope{Type: ScopeHTTP}, nil, func(m Message) error {
		sent = append(sent, m)
		return nil
	})
	require.NoError(t, r.send(req))

	var cookies []string
	for _, h := range sent[0].HTTPHeaders {
		if string(h.Name) == "set-cookie" {
			cookies = append(cookies, string(h.Value))
		}
	}
	assert.Equal(t, []string{"a=1", "b=2"}, cookies)
}

func TestDefaultNotFoundAndMethodNotAllowedResponses(t *testing.T) {
	nf := DefaultNotFoundResponse()
	assert.Equal(t, 404, nf.Status)
	body, _, err := nf.encode("application/json")
	require.NoError(t, err)
	assert.Equal(t, "Not Found", string(body))

	mna := DefaultMethodNotAllowedResponse()
	assert.Equal(t, 405, mna.Status)
	body, _, err = mna.encode("application/json")
	require.NoError(t, err)
	assert.Equal(t, "Method Not Allowed", string(body))
}
