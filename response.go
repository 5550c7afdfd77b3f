package relay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Response is the result of an HTTP route callback, with its encoding
// style adapted from air's response.go
// WriteJSON/WriteTOML/WriteYAML/WriteMsgpack.
type Response struct {
	Status    int
	Headers   map[string]string
	MediaType string

	// data is the structured body handed to a constructor (Ok, NotFound,
	// ...); it is content-negotiated against the request's Accept header
	// when the response is sent.
	data interface{}

	// rawBody bypasses negotiation entirely: when set, it is sent
	// verbatim. DefaultNotFoundResponse and
	// DefaultMethodNotAllowedResponse use it, so their plain-text body is
	// sent as is whatever the request's Accept header says.
	rawBody []byte

	// cookies holds outbound cookies queued by SetCookie, each emitted as
	// its own "set-cookie" header when r is sent.
	cookies []*Cookie
}

// SetCookie queues c to be emitted as a "set-cookie" header when r is sent,
// returning r for chaining. A cookie with an invalid name is silently
// dropped at send time, the same way Cookie.String reports it.
func (r *Response) SetCookie(c *Cookie) *Response {
	r.cookies = append(r.cookies, c)
	return r
}

// charset is the charset declared on text media types.
const charset = "utf-8"

// NewResponse constructs a Response carrying data, to be status-coded and
// content-negotiated when sent.
func NewResponse(data interface{}, status int, headers map[string]string) *Response {
	return &Response{Status: status, Headers: headers, data: data}
}

// Ok returns a 201 response if data is nil, otherwise a 200.
func Ok(data interface{}, headers map[string]string) *Response {
	status := http.StatusCreated
	if data != nil {
		status = http.StatusOK
	}
	return NewResponse(data, status, headers)
}

// ClientError returns a 400 response.
func ClientError(data interface{}, headers map[string]string) *Response {
	return NewResponse(data, http.StatusBadRequest, headers)
}

// Unauthorized returns a 401 response.
func Unauthorized(data interface{}, headers map[string]string) *Response {
	return NewResponse(data, http.StatusUnauthorized, headers)
}

// Forbidden returns a 403 response.
func Forbidden(data interface{}, headers map[string]string) *Response {
	return NewResponse(data, http.StatusForbidden, headers)
}

// NotFound returns a 404 response.
func NotFound(data interface{}, headers map[string]string) *Response {
	return NewResponse(data, http.StatusNotFound, headers)
}

// Internal returns a 500 response.
func Internal(data interface{}, headers map[string]string) *Response {
	return NewResponse(data, http.StatusInternalServerError, headers)
}

// MethodNotAllowed returns a 405 response, defaulting its body to
// "Method Not Allowed" when data is nil.
func MethodNotAllowed(data interface{}, headers map[string]string) *Response {
	if data == nil {
		data = "Method Not Allowed"
	}
	return NewResponse(data, http.StatusMethodNotAllowed, headers)
}

// redirectSafe is the fixed set of characters left unescaped in a
// redirect target: ":/%#?=@[]!$&'()*+,;".
const redirectSafe = ":/%#?=@[]!$&'()*+,;"

// Redirect returns a 200 response carrying a Location header pointing at
// target, percent-encoded against redirectSafe. It is not itself a 3xx
// HTTP redirect; it leaves that status choice to the caller (who may layer
// a 302/303/307 on top via headers or by setting Status on the returned
// Response) and only handles the URL quoting.
func Redirect(target string, headers map[string]string) *Response {
	if headers == nil {
		headers = map[string]string{}
	}
	headers["location"] = quoteRedirectTarget(target)
	r := NewResponse([]byte{}, http.StatusOK, headers)
	return r
}

// quoteRedirectTarget percent-encodes target: every byte in redirectSafe,
// plus unreserved characters, passes through unescaped; everything else
// becomes %XX.
func quoteRedirectTarget(target string) string {
	const hex = "0123456789ABCDEF"
	var buf strings.Builder
	for i := 0; i < len(target); i++ {
		b := target[i]
		if isRedirectSafeByte(b) {
			buf.WriteByte(b)
			continue
		}
		buf.WriteByte('%')
		buf.WriteByte(hex[b>>4])
		buf.WriteByte(hex[b&0xf])
	}
	return buf.String()
}

func isRedirectSafeByte(b byte) bool {
	if b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' {
		return true
	}
	switch b {
	case '_', '.', '-', '~':
		return true
	}
	return strings.IndexByte(redirectSafe, b) >= 0
}

// WithMediaType overrides the media type the response would otherwise
// negotiate, returning r for chaining.
func (r *Response) WithMediaType(mediaType string) *Response {
	r.MediaType = mediaType
	return r
}

// encode renders r's body as bytes and returns its content type, choosing
// an encoding from the Accept header: "application/x-yaml"/"text/yaml",
// "application/toml", "application/json", and
// "application/msgpack"/"application/x-msgpack", falling back to JSON.
func (r *Response) encode(accept string) ([]byte, string, error) {
	if r.rawBody != nil {
		ct := r.MediaType
		return r.rawBody, ct, nil
	}

	if r.MediaType != "" {
		body, err := encodeMediaType(r.MediaType, r.data)
		return body, r.MediaType, err
	}

	switch accept {
	case "application/x-yaml", "text/yaml":
		body, err := yamlEncode(r.data)
		return body, "application/yaml", err
	case "application/toml":
		body, err := tomlEncode(r.data)
		return body, "application/toml", err
	case "application/msgpack", "application/x-msgpack":
		body, err := msgpack.Marshal(r.data)
		return body, "application/msgpack", err
	case "text/plain":
		if s, ok := r.data.(string); ok {
			return []byte(s), "text/plain", nil
		}
	}

	return jsonEncode(r.data)
}

// encodeMediaType encodes data using the codec named by mediaType.
func encodeMediaType(mediaType string, data interface{}) ([]byte, error) {
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return yamlEncode(data)
	case "application/toml":
		return tomlEncode(data)
	case "application/msgpack", "application/x-msgpack":
		return msgpack.Marshal(data)
	case "text/plain":
		if s, ok := data.(string); ok {
			return []byte(s), nil
		}
		fallthrough
	default:
		body, _, err := jsonEncode(data)
		return body, err
	}
}

func jsonEncode(data interface{}) ([]byte, string, error) {
	if data == nil {
		return []byte{}, "application/json", nil
	}
	if s, ok := data.(string); ok {
		return []byte(s), "text/plain", nil
	}
	if b, ok := data.([]byte); ok {
		return b, "application/octet-stream", nil
	}
	body, err := json.Marshal(data)
	return body, "application/json", err
}

func yamlEncode(data interface{}) ([]byte, error) {
	buf := bytes.Buffer{}
	if err := yaml.NewEncoder(&buf).Encode(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tomlEncode(data interface{}) ([]byte, error) {
	buf := bytes.Buffer{}
	if err := toml.NewEncoder(&buf).Encode(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// send writes r to the gateway as an http.response.start followed by an
// http.response.body message, negotiating its encoding against req's Accept
// header
func (r *Response) send(req *Request) error {
	accept := req.Header("accept")
	body, contentType, err := r.encode(accept)
	if err != nil {
		return err
	}

	headers := make(map[string]string, len(r.Headers)+2)
	for k, v := range r.Headers {
		headers[toLowerASCII(k)] = v
	}
	if _, ok := headers["content-length"]; !ok {
		headers["content-length"] = strconv.Itoa(len(body))
	}
	if contentType != "" {
		if _, ok := headers["content-type"]; !ok {
			if strings.HasPrefix(contentType, "text/") {
				contentType += "; charset=" + charset
			}
			headers["content-type"] = contentType
		}
	}

	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)

	httpHeaders := make([]HeaderPair, 0, len(headers)+len(r.cookies))
	for _, k := range names {
		httpHeaders = append(httpHeaders, HeaderPair{Name: []byte(k), Value: []byte(headers[k])})
	}
	for _, c := range r.cookies {
		if s := c.String(); s != "" {
			httpHeaders = append(httpHeaders, HeaderPair{Name: []byte("set-cookie"), Value: []byte(s)})
		}
	}

	if err := req.send(Message{
		Type:        "http.response.start",
		Status:      r.Status,
		HTTPHeaders: httpHeaders,
	}); err != nil {
		return err
	}

	return req.send(Message{Type: "http.response.body", Body: body})
}
