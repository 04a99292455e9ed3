package schemaforge

import (
	stdjson "encoding/json"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	gojson "github.com/goccy/go-json"
)

// This file implements the pluggable JSON engine, mirroring the teacher's compiler.go
// WithEncoderJSON/WithDecoderJSON seam: the default encoder/decoder use
// github.com/go-json-experiment/json for deterministic, spec-following marshaling (needed so
// compile(compile(S)) and two runs of Convert on the same input byte-for-byte match), but a
// caller that doesn't need that guarantee and wants more throughput can opt into
// GoJSONEncode/GoJSONDecode (github.com/goccy/go-json) via Forge.WithEncoderJSON/WithDecoderJSON.

type jsonEncodeFunc func(v any) ([]byte, error)
type jsonDecodeFunc func(data []byte, v any) error

func defaultJSONEncode(v any) ([]byte, error) {
	return json.Marshal(v, json.Deterministic(true))
}

func defaultJSONDecode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// encodeIndent marshals v as indented JSON for human-facing surfaces (manifest files, via
// Manifest.Encode).
func encodeIndent(v any) ([]byte, error) {
	return json.Marshal(v, json.Deterministic(true), jsontext.WithIndent("  "))
}

// encodeCompact marshals v with encoding/json into compact bytes. It backs error blob construction
// in the JSON-string bridge and the small value-to-string encodings inside the passes and the
// rehydrator (enum values, opaque placeholders, stringified defaults and examples).
func encodeCompact(v any) ([]byte, error) {
	return stdjson.Marshal(v)
}

// GoJSONEncode and GoJSONDecode back Forge.WithEncoderJSON/WithDecoderJSON for callers who accept
// goccy/go-json's looser key-ordering guarantees in exchange for its faster encode/decode path;
// most callers should leave Forge on the default engine.
func GoJSONEncode(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

func GoJSONDecode(data []byte, v any) error {
	return gojson.Unmarshal(data, v)
}
