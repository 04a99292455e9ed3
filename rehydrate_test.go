package schemaforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRehydrateMapToArrayRoundTrip(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.Add(Transform{Kind: KindMapToArray, Path: "#/properties/tags", KeyProperty: "key", ValueProperty: "value"})
	schema := mustSchema(t, `{"type": "object", "properties": {"tags": {"type": "object"}}}`)

	llmOutput := map[string]any{
		"tags": []any{
			map[string]any{"key": "a", "value": "x"},
			map[string]any{"key": "b", "value": "y"},
		},
	}
	out, _, err := Rehydrate(llmOutput, codec, schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tags": map[string]any{"a": "x", "b": "y"}}, out)
}

func TestRehydrateRootObjectWrapperUnwraps(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.Add(Transform{Kind: KindRootObjectWrapper, Path: "#", RootKey: "result"})
	schema := mustSchema(t, `{"type": "array", "items": {"type": "string"}}`)

	out, _, err := Rehydrate(map[string]any{"result": []any{"a", "b"}}, codec, schema)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out)
}

func TestRehydrateRootObjectWrapperMissingKey(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.Add(Transform{Kind: KindRootObjectWrapper, Path: "#", RootKey: "result"})
	schema := mustSchema(t, `{"type": "array", "items": {"type": "string"}}`)

	_, _, err := Rehydrate(map[string]any{"oops": []any{}}, codec, schema)
	require.Error(t, err)
	var rehydrationErr *RehydrationError
	require.ErrorAs(t, err, &rehydrationErr)
}

func TestRehydrateJSONStringParseRoundTrip(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.Add(Transform{Kind: KindJSONStringParse, Path: "#/properties/payload"})
	schema := mustSchema(t, `{"type": "object", "properties": {"payload": {}}}`)

	out, _, err := Rehydrate(map[string]any{"payload": `{"a": 1}`}, codec, schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"payload": map[string]any{"a": float64(1)}}, out)
}

func TestRehydrateJSONStringParseMalformed(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.Add(Transform{Kind: KindJSONStringParse, Path: "#/properties/payload"})
	schema := mustSchema(t, `{"type": "object", "properties": {"payload": {}}}`)

	_, _, err := Rehydrate(map[string]any{"payload": "not json"}, codec, schema)
	require.Error(t, err)
	var rehydrationErr *RehydrationError
	require.ErrorAs(t, err, &rehydrationErr)
}

func TestRehydrateNullableOptionalDropsAbsence(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.Add(Transform{Kind: KindNullableOptional, Path: "#/properties/age", WasRequired: false})
	schema := mustSchema(t, `{"type": "object", "properties": {"name": {"type": "string"}, "age": {"type": "integer"}}}`)

	out, _, err := Rehydrate(map[string]any{"name": "A", "age": nil}, codec, schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "A"}, out)
}

func TestRehydrateNullableOptionalPreservesWhenRequired(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.Add(Transform{Kind: KindNullableOptional, Path: "#/properties/age", WasRequired: true})
	schema := mustSchema(t, `{"type": "object", "properties": {"age": {"type": "integer"}}}`)

	out, _, err := Rehydrate(map[string]any{"age": nil}, codec, schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"age": nil}, out)
}

func TestRehydrateEnumStringifyRoundTrip(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.Add(Transform{Kind: KindEnumStringify, Path: "#/properties/color", OriginalValues: []any{"red", float64(1), true}})
	schema := mustSchema(t, `{"type": "object", "properties": {"color": {"enum": ["red", 1, true]}}}`)

	out, _, err := Rehydrate(map[string]any{"color": "1"}, codec, schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"color": float64(1)}, out)

	out, _, err = Rehydrate(map[string]any{"color": "true"}, codec, schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"color": true}, out)

	out, _, err = Rehydrate(map[string]any{"color": "red"}, codec, schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"color": "red"}, out)
}

func TestRehydrateRejectsVersionMismatch(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.Version = "2"
	schema := mustSchema(t, `{"type": "object"}`)

	_, _, err := Rehydrate(map[string]any{}, codec, schema)
	require.Error(t, err)
	var mismatch *CodecVersionMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestRehydrateCoercesStringifiedNumber(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	schema := mustSchema(t, `{"type": "object", "properties": {"count": {"type": "integer"}}}`)

	out, warnings, err := Rehydrate(map[string]any{"count": "42"}, codec, schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": float64(42)}, out)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarningCoercion, warnings[0].Kind)
}

func TestRehydrateConstraintClampedAfterCoercion(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.AddDropped(DroppedConstraint{Path: "#/properties/count", Keyword: "maximum", Original: float64(10)})
	schema := mustSchema(t, `{"type": "object", "properties": {"count": {"type": "integer"}}}`)

	out, warnings, err := Rehydrate(map[string]any{"count": "99"}, codec, schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": float64(10)}, out)

	require.Len(t, warnings, 2)
	assert.Equal(t, WarningCoercion, warnings[0].Kind)
	assert.Equal(t, WarningConstraintFixed, warnings[1].Kind)
}
