package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConverterRegistrySeedsBuiltins(t *testing.T) {
	r := NewConverterRegistry()

	for _, id := range []string{"str", "int", "float", "iso-datetime", "epoch-timestamp", "uuid"} {
		_, ok := r.Lookup(id)
		assert.Truef(t, ok, "expected builtin converter %q to be registered", id)
	}

	_, ok := r.Lookup("does-not-exist")
	assert.False(t, ok)
}

func TestConverterRegistryRegisterOverrides(t *testing.T) {
	r := NewConverterRegistry()
	r.Register("int", Converter{
		Regex:  `[0-9]+`,
		Decode: func(s string) (interface{}, error) { return "overridden:" + s, nil },
	})

	conv, ok := r.Lookup("int")
	require.True(t, ok)

	v, err := conv.Decode("42")
	require.NoError(t, err)
	assert.Equal(t, "overridden:42", v)
}

func TestIntConverterDecode(t *testing.T) {
	r := NewConverterRegistry()
	conv, _ := r.Lookup("int")

	v, err := conv.Decode("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = conv.Decode("abc")
	assert.Error(t, err)
}

func TestUUIDConverterDecode(t *testing.T) {
	r := NewConverterRegistry()
	conv, _ := r.Lookup("uuid")

	v, err := conv.Decode("123e4567-e89b-12d3-a456-426614174000")
	require.NoError(t, err)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", v)

	_, err = conv.Decode("not-a-uuid")
	assert.Error(t, err)
}
