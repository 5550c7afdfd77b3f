package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, pattern string) *CompiledPath {
	t.Helper()
	cp, err := CompilePath(pattern, NewConverterRegistry())
	require.NoError(t, err)
	return cp
}

func TestCompilePathRequiresLeadingSlash(t *testing.T) {
	_, err := CompilePath("no-leading-slash", NewConverterRegistry())
	require.Error(t, err)
	assert.IsType(t, &ConfigurationError{}, err)
}

func TestCompilePathLiteralRoundTrip(t *testing.T) {
	cp := mustCompile(t, "/a/b")

	params, ok := cp.match([]string{"a", "b", ""})
	require.True(t, ok)
	assert.Empty(t, params)

	_, ok = cp.match([]string{"a", "b"})
	assert.False(t, ok, "segment count mismatch must not match")
}

func TestCompilePathParameterRoundTrip(t *testing.T) {
	cp := mustCompile(t, "/users/{id:int}")

	params, ok := cp.match([]string{"users", "42", ""})
	require.True(t, ok)
	assert.Equal(t, int64(42), params["id"])

	_, ok = cp.match([]string{"users", "abc", ""})
	assert.False(t, ok, "a decode failure must be a no-match, not an error")
}

func TestCompilePathDefaultsToStrConverter(t *testing.T) {
	cp := mustCompile(t, "/items/{name}")

	params, ok := cp.match([]string{"items", "widget", ""})
	require.True(t, ok)
	assert.Equal(t, "widget", params["name"])
}

func TestCompilePathRejectsDuplicateParamNames(t *testing.T) {
	_, err := CompilePath("/a/{id}/b/{id}", NewConverterRegistry())
	require.Error(t, err)
	assert.IsType(t, &ConfigurationError{}, err)
}

func TestCompilePathRejectsUnknownConverter(t *testing.T) {
	_, err := CompilePath("/a/{id:not-a-converter}", NewConverterRegistry())
	require.Error(t, err)
	_, ok := err.(*ConfigurationError)
	assert.True(t, ok)
}

func TestCompilePathRejectsInvalidParamName(t *testing.T) {
	// "1abc" is not a legal identifier, so "{1abc}" is rejected as a
	// parameter reference with an invalid name.
	_, err := CompilePath("/a/{1abc}", NewConverterRegistry())
	require.Error(t, err)
	assert.IsType(t, &ConfigurationError{}, err)
}
