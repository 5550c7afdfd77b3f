package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
)

// Request is a thin, lazily-decoded handle over one HTTP Scope. It borrows
// its Scope and its receive/send pair for the duration of exactly one
// dispatch; no Request outlives its dispatch.
type Request struct {
	scope   *Scope
	receive Receive
	send    Send

	urlValue      *URL
	queryValue    map[string][]string
	queryParsed   bool
	cookiesValue  map[string]string
	cookiesParsed bool
	headersValue  map[string]string
	headersParsed bool
	clientValue   *Address
	clientParsed  bool

	streamStarted  bool
	streamDone     bool
	bodyValue      []byte
	bodyCached     bool
	jsonValue      interface{}
	jsonCached     bool
	formValue      *Form
	formCached     bool
}

// newRequest builds a Request over scope, wiring it to the gateway's
// receive/send pair for this one connection.
func newRequest(scope *Scope, receive Receive, send Send) *Request {
	return &Request{scope: scope, receive: receive, send: send}
}

// App returns the Application that is dispatching this Request.
func (r *Request) App() interface{} { return r.scope.App }

// Endpoint returns the Route chosen for this Request, set once routing
// completes.
func (r *Request) Endpoint() interface{} { return r.scope.Endpoint }

// Method returns the request's HTTP method.
func (r *Request) Method() string { return r.scope.Method }

// PathParams returns the decoded path parameters the router produced.
func (r *Request) PathParams() map[string]interface{} { return r.scope.PathParams }

// Scheme returns the request's scheme ("http" or "https").
func (r *Request) Scheme() string { return r.scope.Scheme }

// URL returns the request URL, computed once on first access and cached
// thereafter.
func (r *Request) URL() *URL {
	if r.urlValue == nil {
		host := ""
		if r.scope.Server != nil {
			host = fmt.Sprintf("%s:%d", r.scope.Server.Host, r.scope.Server.Port)
		}
		if h := r.Headers()["host"]; h != "" {
			host = h
		}
		r.urlValue = &URL{
			Scheme: r.scope.Scheme,
			Host:   host,
			Path:   r.scope.Path,
			Query:  string(r.scope.QueryString),
		}
	}
	return r.urlValue
}

// BaseURL returns the request URL with its path reset to "/" and its query
// cleared.
func (r *Request) BaseURL() *URL {
	u := r.URL()
	return u.withPath("/")
}

// Client returns the address of the connecting peer, or nil if the gateway
// did not provide one.
func (r *Request) Client() *Address {
	if !r.clientParsed {
		r.clientValue = r.scope.Client
		r.clientParsed = true
	}
	return r.clientValue
}

// Headers returns the request headers as a lower-cased name->value map,
// computed once and cached. Repeated header names keep only their last
// value.
func (r *Request) Headers() map[string]string {
	if !r.headersParsed {
		h := make(map[string]string, len(r.scope.Headers))
		for _, pair := range r.scope.Headers {
			h[strings.ToLower(string(pair.Name))] = string(pair.Value)
		}
		r.headersValue = h
		r.headersParsed = true
	}
	return r.headersValue
}

// Header returns the single value of the named header, or "" if absent. The
// name is matched case-insensitively.
func (r *Request) Header(name string) string {
	return r.Headers()[strings.ToLower(name)]
}

// QueryParams returns the parsed query string, with repeated keys collected
// into a list.
func (r *Request) QueryParams() map[string][]string {
	if !r.queryParsed {
		r.queryValue = parseQueryString(r.scope.QueryString)
		r.queryParsed = true
	}
	return r.queryValue
}

// Cookies returns the cookies sent on the request, parsed from the "Cookie"
// header.
func (r *Request) Cookies() map[string]string {
	if !r.cookiesParsed {
		r.cookiesValue = ParseCookies(r.Header("cookie"))
		r.cookiesParsed = true
	}
	return r.cookiesValue
}

// Stream returns a pull function yielding the request body in chunks: each
// call returns the next non-empty chunk, io.EOF once the gateway has
// delivered the full body, or a *ClientDisconnect if the gateway reports
// the peer disconnected mid-stream. Calling Stream a second time after the
// first has been exhausted returns a *ProtocolError.
func (r *Request) Stream() (func() ([]byte, error), error) {
	if r.streamStarted {
		return nil, &ProtocolError{Message: "relay: request body stream already consumed"}
	}
	r.streamStarted = true

	return func() ([]byte, error) {
		for {
			if r.streamDone {
				return nil, io.EOF
			}

			msg, err := r.receive()
			if err != nil {
				return nil, err
			}

			switch msg.Type {
			case "http.request":
				if !msg.MoreBody {
					r.streamDone = true
				}
				if len(msg.Body) > 0 {
					return msg.Body, nil
				}
				if r.streamDone {
					return nil, io.EOF
				}
			case "http.disconnect":
				r.streamDone = true
				return nil, &ClientDisconnect{}
			default:
				return nil, UnexpectedMessage([]string{"http.request", "http.disconnect"}, msg.Type)
			}
		}
	}, nil
}

// Body drains Stream and concatenates it, caching the result.
func (r *Request) Body() ([]byte, error) {
	if r.bodyCached {
		return r.bodyValue, nil
	}

	next, err := r.Stream()
	if err != nil {
		return nil, err
	}

	var chunks [][]byte
	for {
		chunk, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	body := make([]byte, 0, total)
	for _, c := range chunks {
		body = append(body, c...)
	}

	r.bodyValue = body
	r.bodyCached = true
	return r.bodyValue, nil
}

// JSON decodes Body as JSON, caching the decoded value.
func (r *Request) JSON() (interface{}, error) {
	if r.jsonCached {
		return r.jsonValue, nil
	}

	body, err := r.Body()
	if err != nil {
		return nil, err
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &PayloadError{Message: "relay: malformed JSON body: " + err.Error()}
	}

	r.jsonValue = v
	r.jsonCached = true
	return v, nil
}

// Form is the result of parsing a multipart or urlencoded request body.
type Form struct {
	Values map[string][]string
	Files  map[string][]*FormFile

	closed bool
}

// FormFile is one uploaded file from a multipart form.
type FormFile struct {
	Filename string
	Header   textproto.MIMEHeader
	Content  []byte
}

// Close releases the Form's resources. A second call is a no-op.
func (f *Form) Close() {
	f.closed = true
	f.Values = nil
	f.Files = nil
}

// Form parses the request body as multipart/form-data or
// application/x-www-form-urlencoded, depending on the Content-Type header,
// bounding both the file count and the field count
// Exceeding either limit raises an *HTTPException(400). An unrecognized
// Content-Type yields an empty Form. The result is cached.
func (r *Request) Form(maxFiles, maxFields int) (*Form, error) {
	if r.formCached {
		return r.formValue, nil
	}

	contentType := r.Header("content-type")
	mediaType, params, _ := mime.ParseMediaType(contentType)

	var form *Form
	switch mediaType {
	case "multipart/form-data":
		body, err := r.Body()
		if err != nil {
			return nil, err
		}

		boundary, ok := params["boundary"]
		if !ok {
			return nil, NewHTTPException(400, "missing multipart boundary", nil)
		}

		mr := multipart.NewReader(bytes.NewReader(body), boundary)
		form = &Form{Values: map[string][]string{}, Files: map[string][]*FormFile{}}

		fileCount, fieldCount := 0, 0
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, NewHTTPException(400, "malformed multipart body: "+err.Error(), nil)
			}

			name := part.FormName()
			if part.FileName() != "" {
				fileCount++
				if fileCount > maxFiles {
					return nil, NewHTTPException(400, "too many files in form", nil)
				}
				content, err := io.ReadAll(part)
				if err != nil {
					return nil, NewHTTPException(400, "malformed multipart file: "+err.Error(), nil)
				}
				form.Files[name] = append(form.Files[name], &FormFile{
					Filename: part.FileName(),
					Header:   part.Header,
					Content:  content,
				})
			} else {
				fieldCount++
				if fieldCount > maxFields {
					return nil, NewHTTPException(400, "too many fields in form", nil)
				}
				content, err := io.ReadAll(part)
				if err != nil {
					return nil, NewHTTPException(400, "malformed multipart field: "+err.Error(), nil)
				}
				form.Values[name] = append(form.Values[name], string(content))
			}
		}

	case "application/x-www-form-urlencoded":
		body, err := r.Body()
		if err != nil {
			return nil, err
		}
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, NewHTTPException(400, "malformed urlencoded body: "+err.Error(), nil)
		}
		if len(values) > maxFields {
			return nil, NewHTTPException(400, "too many fields in form", nil)
		}
		form = &Form{Values: map[string][]string(values), Files: map[string][]*FormFile{}}

	default:
		form = &Form{Values: map[string][]string{}, Files: map[string][]*FormFile{}}
	}

	r.formValue = form
	r.formCached = true
	return form, nil
}

// Close releases per-request resources acquired by Form. A second call is a
// no-op.
func (r *Request) Close() {
	if r.formCached && r.formValue != nil {
		r.formValue.Close()
	}
}
