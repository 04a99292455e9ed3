package schemaforge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileFor(t *testing.T, raw string, opts *ConvertOptions) *CompileResult {
	t.Helper()
	s := mustSchema(t, raw)
	if opts == nil {
		opts = NewConvertOptions()
	}
	result, err := Compile(context.Background(), s, ConfigFromOptions(opts))
	require.NoError(t, err)
	return result
}

func TestScenarioSimpleNullableOptional(t *testing.T) {
	result := compileFor(t, `{
		"type": "object",
		"properties": {"name": {"type": "string"}, "age": {"type": "integer"}},
		"required": ["name"]
	}`, nil)

	age := (*result.Schema.Properties)["age"]
	require.Len(t, age.AnyOf, 2)
	assert.Equal(t, SchemaType{"integer"}, age.AnyOf[0].Type)
	assert.Equal(t, SchemaType{"null"}, age.AnyOf[1].Type)
	assert.ElementsMatch(t, []string{"name", "age"}, result.Schema.Required)
	assert.True(t, result.Schema.AdditionalProperties.IsBooleanFalse())

	transforms := result.Codec.TransformsAt("#/properties/age")
	require.Len(t, transforms, 1)
	assert.Equal(t, KindNullableOptional, transforms[0].Kind)
	assert.False(t, transforms[0].WasRequired)

	out, warnings, err := Rehydrate(map[string]any{"name": "A", "age": nil}, result.Codec, result.Schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "A"}, out)
	assert.Empty(t, warnings)
}

func TestScenarioMapRewrite(t *testing.T) {
	// Permissive mode: P9's root-object enforcement only applies under openai-strict + strict, and
	// would otherwise re-wrap the array P3 produces here.
	opts := NewConvertOptions().SetMode(ModePermissive)
	result := compileFor(t, `{"type": "object", "additionalProperties": {"type": "integer"}}`, opts)

	require.True(t, result.Schema.IsArrayType())
	items := result.Schema.Items
	require.True(t, items.IsObjectType())
	require.Contains(t, *items.Properties, "key")
	require.Contains(t, *items.Properties, "value")
	assert.ElementsMatch(t, []string{"key", "value"}, items.Required)
	assert.True(t, items.AdditionalProperties.IsBooleanFalse())

	transforms := result.Codec.TransformsAt("#")
	require.Len(t, transforms, 1)
	assert.Equal(t, KindMapToArray, transforms[0].Kind)

	llmOutput := []any{
		map[string]any{"key": "a", "value": float64(1)},
		map[string]any{"key": "b", "value": float64(2)},
	}
	out, _, err := Rehydrate(llmOutput, result.Codec, result.Schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, out)
}

func TestScenarioOpaqueStringification(t *testing.T) {
	opts := NewConvertOptions().SetMode(ModePermissive)
	result := compileFor(t, `{"type": "object"}`, opts)

	require.True(t, result.Schema.HasType("string"))
	require.NotNil(t, result.Schema.Description)

	transforms := result.Codec.TransformsAt("#")
	require.Len(t, transforms, 1)
	assert.Equal(t, KindJSONStringParse, transforms[0].Kind)

	out, _, err := Rehydrate(`{"k": 1}`, result.Codec, result.Schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": float64(1)}, out)
}

func TestScenarioRecursiveTreeBroken(t *testing.T) {
	raw := `{
		"$ref": "#/$defs/TreeNode",
		"$defs": {
			"TreeNode": {
				"type": "object",
				"properties": {
					"value": {"type": "string"},
					"children": {"type": "array", "items": {"$ref": "#/$defs/TreeNode"}}
				},
				"required": ["value", "children"]
			}
		}
	}`
	opts := NewConvertOptions().SetRecursionLimit(2)
	result := compileFor(t, raw, opts)

	var inflate []Transform
	for _, tr := range result.Codec.Transforms {
		if tr.Kind == KindRecursiveInflate {
			inflate = append(inflate, tr)
		}
	}
	require.Len(t, inflate, 1)
	assert.Contains(t, inflate[0].InnerSchemaPath, "TreeNode")
}

func TestScenarioMixedEnum(t *testing.T) {
	opts := NewConvertOptions().SetTarget(TargetOpenAIStrict).SetMode(ModeStrict)
	result := compileFor(t, `{
		"type": "object",
		"properties": {"color": {"enum": ["red", 1, true]}},
		"required": ["color"]
	}`, opts)

	color := (*result.Schema.Properties)["color"]
	assert.Equal(t, SchemaType{"string"}, color.Type)
	assert.Equal(t, []any{"red", "1", "true"}, color.Enum)

	transforms := result.Codec.TransformsAt("#/properties/color")
	require.Len(t, transforms, 1)
	assert.Equal(t, KindEnumStringify, transforms[0].Kind)
	assert.Equal(t, []any{"red", float64(1), true}, transforms[0].OriginalValues)

	original := mustSchema(t, `{"type": "object", "properties": {"color": {"enum": ["red", 1, true]}}, "required": ["color"]}`)
	out, _, err := Rehydrate(map[string]any{"color": "1"}, result.Codec, original)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"color": float64(1)}, out)
}

func TestScenarioNonObjectRootWrapped(t *testing.T) {
	opts := NewConvertOptions().SetTarget(TargetOpenAIStrict).SetMode(ModeStrict)
	result := compileFor(t, `{"type": "array", "items": {"type": "string"}}`, opts)

	require.True(t, result.Schema.IsObjectType())
	require.Contains(t, *result.Schema.Properties, "result")
	wrapped := (*result.Schema.Properties)["result"]
	assert.True(t, wrapped.IsArrayType())
	assert.Equal(t, []string{"result"}, result.Schema.Required)
	assert.True(t, result.Schema.AdditionalProperties.IsBooleanFalse())

	var rootTypeDiag *ProviderCompatDiagnostic
	for i := range result.Diagnostics {
		if result.Diagnostics[i].Kind == "RootTypeIncompatible" {
			rootTypeDiag = &result.Diagnostics[i]
		}
	}
	require.NotNil(t, rootTypeDiag)
	assert.Equal(t, "array", rootTypeDiag.Meta["actual_type"])

	out, _, err := Rehydrate(map[string]any{"result": []any{"a", "b"}}, result.Codec, result.Schema)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out)
}

func TestCompileIdempotent(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {"name": {"type": "string"}, "age": {"type": "integer"}},
		"required": ["name"]
	}`)
	opts := NewConvertOptions()
	first, err := Compile(context.Background(), s, ConfigFromOptions(opts))
	require.NoError(t, err)

	second, err := Compile(context.Background(), first.Schema, ConfigFromOptions(opts))
	require.NoError(t, err)

	firstJSON, err := defaultJSONEncode(first.Schema)
	require.NoError(t, err)
	secondJSON, err := defaultJSONEncode(second.Schema)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestCompileNilRootReturnsSchemaError(t *testing.T) {
	_, err := Compile(context.Background(), nil, ConfigFromOptions(NewConvertOptions()))
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}
