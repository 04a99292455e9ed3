package schemaforge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These exercise the §8 quantified invariants and round-trip laws against compiled output, as
// opposed to pipeline_test.go's per-scenario checks and rehydrate_test.go's per-transform checks.

var strictCorpus = []string{
	`{"type": "object", "properties": {"name": {"type": "string"}, "age": {"type": "integer"}}, "required": ["name"]}`,
	`{"type": "object", "properties": {"tags": {"type": "array", "items": {"type": "string"}}}, "required": ["tags"]}`,
	`{
		"type": "object",
		"properties": {
			"kind": {"enum": ["cat", "dog", 7]}
		},
		"required": ["kind"]
	}`,
	`{"type": "array", "items": {"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]}}`,
}

func TestCompiledSchemasAreStrictModeClean(t *testing.T) {
	opts := NewConvertOptions().SetTarget(TargetOpenAIStrict).SetMode(ModeStrict)
	for _, raw := range strictCorpus {
		s := mustSchema(t, raw)
		result, err := Compile(context.Background(), s, ConfigFromOptions(opts))
		require.NoError(t, err)
		assert.Empty(t, ValidateStrictMode(result.Schema), "fixture: %s", raw)
	}
}

func TestMaxLengthEnforcementHoldsAfterRehydration(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.AddDropped(DroppedConstraint{Path: "#/properties/name", Keyword: "maxLength", Original: float64(3)})
	schema := mustSchema(t, `{"type": "object", "properties": {"name": {"type": "string"}}}`)

	out, warnings, err := Rehydrate(map[string]any{"name": "abcdef"}, codec, schema)
	require.NoError(t, err)
	got := out.(map[string]any)["name"].(string)
	assert.LessOrEqual(t, len([]rune(got)), 3)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarningConstraintFixed, warnings[0].Kind)
}

func TestCoercionWarningsPrecedeConstraintWarningsPerPath(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.AddDropped(DroppedConstraint{Path: "#/properties/score", Keyword: "minimum", Original: float64(0)})
	schema := mustSchema(t, `{"type": "object", "properties": {"score": {"type": "integer"}}}`)

	_, warnings, err := Rehydrate(map[string]any{"score": "-5"}, codec, schema)
	require.NoError(t, err)
	require.Len(t, warnings, 2)

	coercionIdx, constraintIdx := -1, -1
	for i, w := range warnings {
		if w.Path != "#/properties/score" {
			continue
		}
		if w.Kind == WarningCoercion && coercionIdx == -1 {
			coercionIdx = i
		}
		if w.Kind != WarningCoercion && constraintIdx == -1 {
			constraintIdx = i
		}
	}
	require.NotEqual(t, -1, coercionIdx)
	require.NotEqual(t, -1, constraintIdx)
	assert.Less(t, coercionIdx, constraintIdx)
}

func TestStrippedPatternPropertiesRecordedAsDroppedConstraint(t *testing.T) {
	result := compileFor(t, `{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"patternProperties": {"^x-": {"type": "string"}},
		"required": ["name"]
	}`, NewConvertOptions().SetTarget(TargetOpenAIStrict).SetMode(ModeStrict))

	require.NotEmpty(t, result.Codec.Dropped)
	found := false
	for _, d := range result.Codec.Dropped {
		if d.Keyword == "patternProperties" {
			found = true
		}
	}
	assert.True(t, found, "expected a dropped_constraints entry for the stripped patternProperties keyword")
}

func TestCodecVersionBumpRejected(t *testing.T) {
	codec := NewCodec(string(TargetOpenAIStrict))
	codec.Version = "2"
	err := codec.CheckVersion()
	require.Error(t, err)
	var mismatch *CodecVersionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "1", mismatch.Expected)
	assert.Equal(t, "2", mismatch.Actual)
}
