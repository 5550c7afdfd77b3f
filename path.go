package relay

import (
	"regexp"
	"strings"
)

// paramNamePattern matches a legal path parameter name:
// [A-Za-z_][A-Za-z0-9_]*.
var paramNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// pathSegment is one compiled segment of a CompiledPath: either a literal
// (Converter is nil) or a parameter slot.
type pathSegment struct {
	// regex matches exactly this segment's text. For a literal segment
	// it is the regexp-escaped literal; for a parameter segment it is
	// the owning Converter's Regex, anchored to the whole segment.
	regex *regexp.Regexp

	// converter is nil for literal segments.
	converter *Converter
	name      string
}

// CompiledPath is a route pattern parsed into an ordered sequence of
// literal and parameter segments
type CompiledPath struct {
	pattern  string
	segments []pathSegment
}

// CompilePath parses pattern using the registry to resolve any
// `{name:converter}` references, and enforces unique parameter names and a
// legal parameter name. Both `{name}` and `{name:converter}` are accepted,
// with `{name}` defaulting to the "str" converter.
func CompilePath(pattern string, registry *ConverterRegistry) (*CompiledPath, error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, &ConfigurationError{Message: "relay: route path must start with \"/\""}
	}

	raw := pattern
	if !strings.HasSuffix(raw, "/") {
		// Append an empty literal segment so trailing-slash
		// normalization (done by the router, not here) always lines
		// up length-wise with a pattern that *did* end in "/".
		raw += "/"
	}

	parts := strings.Split(raw, "/")[1:] // drop the leading "" before the first "/"

	cp := &CompiledPath{pattern: pattern}
	seen := map[string]bool{}

	for _, part := range parts {
		seg, err := compileSegment(part, registry)
		if err != nil {
			return nil, err
		}
		if seg.converter != nil {
			if seen[seg.name] {
				return nil, &ConfigurationError{
					Message: "relay: duplicate path parameter name \"" + seg.name + "\" in \"" + pattern + "\"",
				}
			}
			seen[seg.name] = true
		}
		cp.segments = append(cp.segments, seg)
	}

	return cp, nil
}

var paramPattern = regexp.MustCompile(`^\{([^{}:/]*)(?::([A-Za-z_][A-Za-z0-9_-]*))?\}$`)

func compileSegment(part string, registry *ConverterRegistry) (pathSegment, error) {
	if m := paramPattern.FindStringSubmatch(part); m != nil {
		name, convID := m[1], m[2]
		if !paramNamePattern.MatchString(name) {
			return pathSegment{}, &ConfigurationError{Message: "relay: invalid path parameter name \"" + name + "\""}
		}
		if convID == "" {
			convID = "str"
		}
		conv, ok := registry.Lookup(convID)
		if !ok {
			return pathSegment{}, ConverterNotFound(convID)
		}
		return pathSegment{
			regex:     regexp.MustCompile("^(?:" + conv.Regex + ")$"),
			converter: &conv,
			name:      name,
		}, nil
	}

	return pathSegment{regex: regexp.MustCompile("^" + regexp.QuoteMeta(part) + "$")}, nil
}

// match attempts to match segments (already split on "/") against cp.
// On success it returns the decoded path parameters; on failure (segment
// count mismatch, literal mismatch, or converter decode failure) it returns
// ok == false — a decode failure is a no-match, not a protocol error.
func (cp *CompiledPath) match(segments []string) (map[string]interface{}, bool) {
	if len(segments) != len(cp.segments) {
		return nil, false
	}

	params := map[string]interface{}{}
	for i, seg := range cp.segments {
		text := segments[i]
		if !seg.regex.MatchString(text) {
			return nil, false
		}
		if seg.converter != nil {
			value, err := seg.converter.Decode(text)
			if err != nil {
				return nil, false
			}
			params[seg.name] = value
		}
	}

	return params, true
}
