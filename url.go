package relay

import (
	"bytes"
	"net/url"
)

// parseQueryString parses a raw query string into a repeated-key map so
// callers can see every value for a key, not just the last one. A malformed
// query string yields a nil map rather than an error.
func parseQueryString(raw []byte) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil
	}
	return map[string][]string(values)
}

// URL is a request URL reconstructed from a Scope's Scheme, Host, Path and
// QueryString fields.
type URL struct {
	Scheme string
	Host   string
	Path   string
	Query  string
}

// String returns the serialized form of u.
func (u *URL) String() string {
	buf := bytes.Buffer{}

	if u.Scheme != "" {
		buf.WriteString(u.Scheme)
		buf.WriteByte(':')
	}

	if u.Scheme != "" || u.Host != "" {
		buf.WriteString("//")
		buf.WriteString(u.Host)
	}

	if u.Path != "" && u.Path[0] != '/' && u.Host != "" {
		buf.WriteByte('/')
	}
	buf.WriteString(u.Path)

	if u.Query != "" {
		buf.WriteByte('?')
		buf.WriteString(u.Query)
	}

	return buf.String()
}

// withPath returns a copy of u with Path replaced and Query cleared, used to
// derive Request.BaseURL from Request.URL.
func (u *URL) withPath(path string) *URL {
	return &URL{Scheme: u.Scheme, Host: u.Host, Path: path}
}
