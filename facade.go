package schemaforge

import "context"

// This file implements component I: the public facade. The JSON-string bridge variants exist for
// host languages that can only pass strings across an FFI boundary (the out-of-scope SDK
// scaffolding mentioned in §1); they never panic, returning a structured error blob instead.

// ConvertResult is the public return shape of Convert.
type ConvertResult struct {
	Schema      *Schema                     `json:"schema"`
	Codec       *Codec                      `json:"codec"`
	Diagnostics []ProviderCompatDiagnostic  `json:"providerCompatDiagnostics,omitempty"`
	TraceID     string                      `json:"traceId"`
}

// Convert parses raw JSON Schema bytes and compiles them for the target/options described by opts.
func Convert(ctx context.Context, rawSchema []byte, opts *ConvertOptions) (*ConvertResult, error) {
	if opts == nil {
		opts = NewConvertOptions()
	}
	schema, err := ParseSchema(rawSchema)
	if err != nil {
		return nil, err
	}
	cfg := ConfigFromOptions(opts)
	result, err := Compile(ctx, schema, cfg)
	if err != nil {
		return nil, err
	}
	return &ConvertResult{Schema: result.Schema, Codec: result.Codec, Diagnostics: result.Diagnostics, TraceID: result.TraceID}, nil
}

// structuredErrorBlob is the JSON-bridge surface's error shape (§6).
type structuredErrorBlob struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Path    *string   `json:"path,omitempty"`
}

func errorBlob(err error) []byte {
	blob := structuredErrorBlob{Code: codeOf(err), Message: err.Error()}
	if p := pointerOf(err); p != "" {
		blob.Path = &p
	}
	b, encErr := encodeCompact(blob)
	if encErr != nil {
		return []byte(`{"code":"schema_error","message":"failed to encode error"}`)
	}
	return b
}

// convertJSONRequest is the JSON-string bridge's input shape for ConvertJSON.
type convertJSONRequest struct {
	Schema  json_RawMessage `json:"schema"`
	Options *convertOptionsJSON `json:"options,omitempty"`
}

type convertOptionsJSON struct {
	Target            string `json:"target"`
	Mode              string `json:"mode"`
	MaxDepth          int    `json:"max-depth"`
	RecursionLimit    int    `json:"recursion-limit"`
	Polymorphism      string `json:"polymorphism"`
	RootWrapperKey    string `json:"root-wrapper-key"`
	DefaultBaseURI    string `json:"default-base-uri"`
	StripDescriptions bool   `json:"strip-descriptions"`
}

// json_RawMessage avoids importing encoding/json just for a raw-bytes passthrough field; it
// marshals/unmarshals as opaque JSON via this package's own JSON engine.
type json_RawMessage []byte

func (r json_RawMessage) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *json_RawMessage) UnmarshalJSON(data []byte) error {
	*r = append((*r)[0:0], data...)
	return nil
}

func (o *convertOptionsJSON) toOptions() *ConvertOptions {
	opts := NewConvertOptions()
	if o == nil {
		return opts
	}
	switch o.Target {
	case "gemini_schema", "gemini":
		opts.SetTarget(TargetGeminiSchema)
	case "anthropic_tool", "claude":
		opts.SetTarget(TargetAnthropicTool)
	default:
		opts.SetTarget(TargetOpenAIStrict)
	}
	if o.Polymorphism == "flatten" {
		opts.SetPolymorphism(PolymorphismFlatten)
	}
	if o.Mode == "permissive" {
		opts.SetMode(ModePermissive)
	}
	if o.MaxDepth > 0 {
		opts.SetMaxRecursionDepth(o.MaxDepth)
	}
	if o.RecursionLimit > 0 {
		opts.SetRecursionLimit(o.RecursionLimit)
	}
	if o.RootWrapperKey != "" {
		opts.SetRootWrapperKey(o.RootWrapperKey)
	}
	if o.DefaultBaseURI != "" {
		opts.SetDefaultBaseURI(o.DefaultBaseURI)
	}
	opts.SetStripDescriptions(o.StripDescriptions)
	return opts
}

// ConvertJSON is the JSON-string bridge: takes one JSON request string carrying the schema and its
// optional options object, and returns a JSON-encoded ConvertResult, or a structured error blob on
// failure.
func ConvertJSON(ctx context.Context, requestJSON string) string {
	var req convertJSONRequest
	if err := defaultJSONDecode([]byte(requestJSON), &req); err != nil {
		return string(errorBlob(&JSONParseError{Message: err.Error(), Err: err}))
	}

	result, err := Convert(ctx, req.Schema, req.Options.toOptions())
	if err != nil {
		return string(errorBlob(err))
	}

	out, err := defaultJSONEncode(result)
	if err != nil {
		return string(errorBlob(&JSONParseError{Message: err.Error(), Err: err}))
	}
	return string(out)
}

type rehydrateJSONRequest struct {
	LLMOutput json_RawMessage `json:"llmOutput"`
	Codec     *Codec          `json:"codec"`
	Original  json_RawMessage `json:"originalSchema"`
}

type rehydrateJSONResponse struct {
	Data     any                   `json:"data"`
	Warnings []RehydrationWarning  `json:"warnings"`
}

// RehydrateJSON is the JSON-string bridge counterpart to Rehydrate.
func RehydrateJSON(requestJSON string) string {
	var req rehydrateJSONRequest
	if err := defaultJSONDecode([]byte(requestJSON), &req); err != nil {
		return string(errorBlob(&JSONParseError{Message: err.Error(), Err: err}))
	}

	var llmOutput any
	if err := defaultJSONDecode(req.LLMOutput, &llmOutput); err != nil {
		return string(errorBlob(&JSONParseError{Message: err.Error(), Err: err}))
	}

	original, err := ParseSchema(req.Original)
	if err != nil {
		return string(errorBlob(err))
	}
	if req.Codec == nil {
		return string(errorBlob(&JSONParseError{Message: "missing codec"}))
	}

	data, warnings, err := Rehydrate(llmOutput, req.Codec, original)
	if err != nil {
		return string(errorBlob(err))
	}

	out, err := defaultJSONEncode(rehydrateJSONResponse{Data: data, Warnings: warnings})
	if err != nil {
		return string(errorBlob(&JSONParseError{Message: err.Error(), Err: err}))
	}
	return string(out)
}
