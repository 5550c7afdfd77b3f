package relay

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Converter resolves one path segment's raw text into a typed value. Regex
// is anchored by the path compiler to match exactly one segment; Decode is
// only ever called on text Regex has already accepted.
type Converter struct {
	Regex  string
	Decode func(string) (interface{}, error)
}

// ConverterRegistry resolves a path parameter's declared converter id to its
// (regex, decode) pair. It is open: callers may Register additional
// converters before compiling any routes that reference them.
type ConverterRegistry struct {
	converters map[string]Converter
}

// NewConverterRegistry returns a registry seeded with the builtin
// converters: str (the default passthrough), int, float, iso-datetime,
// epoch-timestamp and uuid.
func NewConverterRegistry() *ConverterRegistry {
	r := &ConverterRegistry{converters: map[string]Converter{}}
	r.Register("str", Converter{
		Regex:  `[^/]*`,
		Decode: func(s string) (interface{}, error) { return s, nil },
	})
	r.Register("int", Converter{
		Regex: `[0-9]+`,
		Decode: func(s string) (interface{}, error) {
			return strconv.ParseInt(s, 10, 64)
		},
	})
	r.Register("float", Converter{
		Regex: `[0-9]+(\.[0-9]+)?`,
		Decode: func(s string) (interface{}, error) {
			return strconv.ParseFloat(s, 64)
		},
	})
	r.Register("iso-datetime", Converter{
		Regex: `[^/]*`,
		Decode: func(s string) (interface{}, error) {
			return time.Parse(time.RFC3339, s)
		},
	})
	r.Register("epoch-timestamp", Converter{
		Regex: `[0-9]+`,
		Decode: func(s string) (interface{}, error) {
			sec, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, err
			}
			return time.Unix(sec, 0), nil
		},
	})
	r.Register("uuid", Converter{
		Regex: `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
		Decode: func(s string) (interface{}, error) {
			if !uuidPattern.MatchString(s) {
				return nil, fmt.Errorf("relay: %q is not a valid uuid", s)
			}
			return s, nil
		},
	})
	return r
}

var uuidPattern = regexp.MustCompile(
	`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`,
)

// Register adds or replaces the converter known by id.
func (r *ConverterRegistry) Register(id string, conv Converter) {
	r.converters[id] = conv
}

// Lookup returns the converter known by id, if any.
func (r *ConverterRegistry) Lookup(id string) (Converter, bool) {
	conv, ok := r.converters[id]
	return conv, ok
}
