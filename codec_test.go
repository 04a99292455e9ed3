package schemaforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodecCheckVersion(t *testing.T) {
	c := NewCodec(string(TargetOpenAIStrict))
	require.NoError(t, c.CheckVersion())

	c.Version = "99"
	err := c.CheckVersion()
	require.Error(t, err)
	var mismatch *CodecVersionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, CodecSchemaVersion, mismatch.Expected)
	assert.Equal(t, "99", mismatch.Actual)
}

func TestCodecTransformsAt(t *testing.T) {
	c := NewCodec(string(TargetOpenAIStrict))
	c.Add(Transform{Kind: KindNullableOptional, Path: "#/properties/age"})
	c.Add(Transform{Kind: KindJSONStringParse, Path: "#/properties/blob"})
	c.Add(Transform{Kind: KindNullableOptional, Path: "#/properties/age"})

	at := c.TransformsAt("#/properties/age")
	require.Len(t, at, 2)
	assert.Empty(t, c.TransformsAt("#/properties/missing"))
}

func TestCodecAddDropped(t *testing.T) {
	c := NewCodec(string(TargetOpenAIStrict))
	c.AddDropped(DroppedConstraint{Path: "#", Keyword: "if", Reason: "dropped during allOf merge"})
	require.Len(t, c.Dropped, 1)
	assert.Equal(t, "if", c.Dropped[0].Keyword)
}
