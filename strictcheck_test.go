package schemaforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStrictModeCleanSchema(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"],
		"additionalProperties": false
	}`)
	assert.Empty(t, ValidateStrictMode(s))
}

func TestValidateStrictModeFlagsMissingAdditionalProperties(t *testing.T) {
	s := mustSchema(t, `{"type": "object", "properties": {"name": {"type": "string"}}, "required": ["name"]}`)
	violations := ValidateStrictMode(s)
	require.NotEmpty(t, violations)
	var found bool
	for _, v := range violations {
		if v.RuleID == "additional_properties_required" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateStrictModeFlagsBannedKeyword(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {"x": {"type": "string"}},
		"required": ["x"],
		"additionalProperties": false,
		"patternProperties": {"^x-": {"type": "string"}}
	}`)
	violations := ValidateStrictMode(s)
	var found bool
	for _, v := range violations {
		if v.RuleID == "banned_keyword_patternProperties" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateStrictModeFlagsNonRootRef(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {"child": {"$ref": "#/$defs/Thing"}},
		"required": ["child"],
		"additionalProperties": false,
		"$defs": {"Thing": {"type": "string"}}
	}`)
	violations := ValidateStrictMode(s)
	var found bool
	for _, v := range violations {
		if v.RuleID == "ref_forbidden" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateStrictModeFlagsNonObjectRoot(t *testing.T) {
	s := mustSchema(t, `{"type": "array", "items": {"type": "string"}}`)
	violations := ValidateStrictMode(s)
	var found bool
	for _, v := range violations {
		if v.RuleID == "root_must_be_object" {
			found = true
		}
	}
	assert.True(t, found)
}
