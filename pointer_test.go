package schemaforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeUnescapeSegment(t *testing.T) {
	tests := []struct {
		raw     string
		escaped string
	}{
		{"plain", "plain"},
		{"a/b", "a~1b"},
		{"a~b", "a~0b"},
		{"~1", "~01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.escaped, EscapeSegment(tt.raw))
		assert.Equal(t, tt.raw, UnescapeSegment(tt.escaped))
	}
}

func TestBuildPathAndSplitPath(t *testing.T) {
	p := BuildPath("#", "properties", "a/b")
	assert.Equal(t, "#/properties/a~1b", p)
	assert.Equal(t, []string{"properties", "a/b"}, SplitPath(p))
}

func TestSplitPathEmpty(t *testing.T) {
	assert.Nil(t, SplitPath("#"))
	assert.Nil(t, SplitPath(""))
}

func TestResolvePointer(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{
			"items": []any{"a", "b", "c"},
		},
	}
	v, ok := ResolvePointer(doc, "#/properties/items/1")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = ResolvePointer(doc, "#/properties/missing")
	assert.False(t, ok)
}
