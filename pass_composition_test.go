package schemaforge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runComposition(t *testing.T, raw string) (*Schema, *passState) {
	t.Helper()
	root := mustSchema(t, raw)
	resolver := BuildRefResolver(root, "")
	st := &passState{ctx: context.Background(), codec: NewCodec("test"), resolver: resolver, pendingAdditional: map[string]*Schema{}}
	out, err := passComposition(st, root)
	require.NoError(t, err)
	return out, st
}

func TestCompositionMergesNumericBoundsAndProperties(t *testing.T) {
	out, _ := runComposition(t, `{
		"allOf": [
			{"type": "object", "properties": {"a": {"type": "string"}}, "minimum": 1, "maximum": 10},
			{"type": "object", "properties": {"b": {"type": "string"}}, "minimum": 5, "maximum": 8, "required": ["b"]}
		]
	}`)

	assert.Equal(t, []string{"object"}, []string(out.Type))
	assert.Equal(t, float64(5), *out.Minimum)
	assert.Equal(t, float64(8), *out.Maximum)
	assert.Contains(t, *out.Properties, "a")
	assert.Contains(t, *out.Properties, "b")
	assert.Equal(t, []string{"b"}, out.Required)
}

func TestCompositionAdditionalPropertiesSchemaMergesRecursively(t *testing.T) {
	out, _ := runComposition(t, `{
		"allOf": [
			{"type": "object", "additionalProperties": {"type": "string", "minLength": 2}},
			{"type": "object", "additionalProperties": {"type": "string", "maxLength": 9}}
		]
	}`)

	require.NotNil(t, out.AdditionalProperties)
	ap := out.AdditionalProperties
	assert.False(t, ap.IsBooleanFalse())
	assert.Equal(t, int64(2), *ap.MinLength)
	assert.Equal(t, int64(9), *ap.MaxLength)
}

func TestCompositionAdditionalPropertiesFalseAbsorbs(t *testing.T) {
	out, _ := runComposition(t, `{
		"allOf": [
			{"type": "object", "additionalProperties": {"type": "string"}},
			{"type": "object", "additionalProperties": false}
		]
	}`)

	require.NotNil(t, out.AdditionalProperties)
	assert.True(t, out.AdditionalProperties.IsBooleanFalse())
}

func TestCompositionAdditionalPropertiesTrueKeepsSchema(t *testing.T) {
	out, _ := runComposition(t, `{
		"allOf": [
			{"type": "object", "additionalProperties": {"type": "number"}},
			{"type": "object", "additionalProperties": true}
		]
	}`)

	require.NotNil(t, out.AdditionalProperties)
	assert.Equal(t, []string{"number"}, []string(out.AdditionalProperties.Type))
}

func TestCompositionItemsMergeRecursivelyForObjectSchemas(t *testing.T) {
	out, _ := runComposition(t, `{
		"allOf": [
			{"type": "array", "items": {"type": "object", "properties": {"x": {"type": "string"}}}},
			{"type": "array", "items": {"type": "object", "properties": {"y": {"type": "string"}}}}
		]
	}`)

	require.NotNil(t, out.Items)
	assert.Contains(t, *out.Items.Properties, "x")
	assert.Contains(t, *out.Items.Properties, "y")
}

func TestCompositionIfThenElseDropped(t *testing.T) {
	out, st := runComposition(t, `{
		"allOf": [
			{"type": "object", "if": {"properties": {"a": {"const": 1}}}, "then": {"required": ["b"]}},
			{"type": "object"}
		]
	}`)

	assert.Nil(t, out.If)
	assert.Nil(t, out.Then)
	assert.Nil(t, out.Else)
	require.Len(t, st.codec.Dropped, 1)
	assert.Equal(t, "if/then/else", st.codec.Dropped[0].Keyword)
}

func TestCompositionLastWinsForUnlistedKeywords(t *testing.T) {
	out, _ := runComposition(t, `{
		"allOf": [
			{"type": "object", "multipleOf": 2, "title": "first", "patternProperties": {"^a": {"type": "string"}}, "examples": [1]},
			{"type": "object", "multipleOf": 3, "title": "second", "patternProperties": {"^b": {"type": "string"}}, "examples": [2]}
		]
	}`)

	require.NotNil(t, out.MultipleOf)
	assert.Equal(t, float64(3), *out.MultipleOf)
	require.NotNil(t, out.Title)
	assert.Equal(t, "second", *out.Title)
	require.NotNil(t, out.PatternProperties)
	assert.Contains(t, *out.PatternProperties, "^b")
	assert.NotContains(t, *out.PatternProperties, "^a")
	assert.Equal(t, []any{float64(2)}, out.Examples)
}

func TestCompositionConflictingConstIsError(t *testing.T) {
	_, err := passComposition(&passState{ctx: context.Background(), codec: NewCodec("test"), resolver: BuildRefResolver(mustSchema(t, `{}`), ""), pendingAdditional: map[string]*Schema{}},
		mustSchema(t, `{
			"allOf": [
				{"const": 1},
				{"const": 2}
			]
		}`))
	require.Error(t, err)
}
