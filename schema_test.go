package schemaforge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, raw string) *Schema {
	t.Helper()
	s, err := ParseSchema([]byte(raw))
	require.NoError(t, err)
	return s
}

func TestParseSchemaBoolean(t *testing.T) {
	s := mustSchema(t, `true`)
	require.True(t, s.IsBooleanTrue())

	s = mustSchema(t, `false`)
	require.True(t, s.IsBooleanFalse())
}

func TestParseSchemaObjectRoundTrip(t *testing.T) {
	s := mustSchema(t, `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)
	require.True(t, s.IsObjectType())
	require.NotNil(t, s.Properties)
	require.Contains(t, *s.Properties, "name")
	require.Equal(t, []string{"name"}, s.Required)
}

func TestSchemaClonePreservesStructure(t *testing.T) {
	s := mustSchema(t, `{"type":"object","properties":{"a":{"type":"integer"}}}`)
	clone := s.Clone()
	require.NotSame(t, s, clone)
	require.NotSame(t, (*s.Properties)["a"], (*clone.Properties)["a"])
	require.True(t, clone.IsObjectType())
}
