package schemaforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dependentSchemaFixture = `{
	"type": "object",
	"properties": {
		"owner": {"$ref": "#/$defs/Person"},
		"reviewer": {"$ref": "#/$defs/Person"}
	},
	"$defs": {
		"Person": {
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"address": {"$ref": "#/$defs/Address"}
			}
		},
		"Address": {
			"type": "object",
			"properties": {"city": {"type": "string"}}
		}
	}
}`

func TestListComponentsSortedDedup(t *testing.T) {
	root := mustSchema(t, dependentSchemaFixture)
	names := ListComponents(root)
	assert.Equal(t, []string{"#/$defs/Address", "#/$defs/Person"}, names)
}

func TestExtractComponentResolvesTransitiveDeps(t *testing.T) {
	root := mustSchema(t, dependentSchemaFixture)
	result, err := ExtractComponent(root, "#/$defs/Person", ExtractOptions{})
	require.NoError(t, err)

	require.True(t, result.Schema.IsObjectType())
	require.Contains(t, *result.Schema.Properties, "address")
	addrRef := (*result.Schema.Properties)["address"]
	assert.Equal(t, "#/$defs/Address", addrRef.Ref)
	require.Contains(t, result.Schema.Defs, "Address")
	assert.Equal(t, 1, result.DependencyCount)
}

func TestExtractComponentUnresolvablePointer(t *testing.T) {
	root := mustSchema(t, dependentSchemaFixture)
	_, err := ExtractComponent(root, "#/$defs/Missing", ExtractOptions{})
	require.Error(t, err)
	var unresolvable *UnresolvableRefError
	require.ErrorAs(t, err, &unresolvable)
}

func TestExtractComponentDeterministicAcrossRuns(t *testing.T) {
	root := mustSchema(t, dependentSchemaFixture)
	first, err := ExtractComponent(root, "#/$defs/Person", ExtractOptions{})
	require.NoError(t, err)
	second, err := ExtractComponent(root, "#/$defs/Person", ExtractOptions{})
	require.NoError(t, err)

	firstJSON, err := defaultJSONEncode(first.Schema)
	require.NoError(t, err)
	secondJSON, err := defaultJSONEncode(second.Schema)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestDependencyGraphMatchesExtractComponent(t *testing.T) {
	root := mustSchema(t, dependentSchemaFixture)
	graph := BuildDependencyGraph(root, "")

	for _, pointer := range ListComponents(root) {
		viaGraph, err := graph.Extract(pointer, ExtractOptions{})
		require.NoError(t, err)
		viaDirect, err := ExtractComponent(root, pointer, ExtractOptions{})
		require.NoError(t, err)

		graphJSON, err := defaultJSONEncode(viaGraph.Schema)
		require.NoError(t, err)
		directJSON, err := defaultJSONEncode(viaDirect.Schema)
		require.NoError(t, err)
		assert.JSONEq(t, string(directJSON), string(graphJSON))
		assert.Equal(t, viaDirect.DependencyCount, viaGraph.DependencyCount)
	}
}

func TestExtractComponentRecordsMissingRefs(t *testing.T) {
	root := mustSchema(t, `{
		"type": "object",
		"properties": {"thing": {"$ref": "#/$defs/Ghost"}},
		"$defs": {}
	}`)
	result, err := ExtractComponent(root, "#", ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"#/$defs/Ghost"}, result.MissingRefs)
}

func TestExtractComponentDiscoversRefsSiblingToARef(t *testing.T) {
	root := mustSchema(t, `{
		"properties": {
			"x": {"$ref": "#/$defs/A", "properties": {"extra": {"$ref": "#/$defs/B"}}}
		},
		"$defs": {
			"A": {"type": "object"},
			"B": {"type": "object"}
		}
	}`)

	result, err := ExtractComponent(root, "#", ExtractOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.MissingRefs)

	encoded, err := defaultJSONEncode(result.Schema)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"B"`)
	assert.Equal(t, 2, result.DependencyCount)
}
