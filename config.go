package schemaforge

import (
	"sync"
)

// This file implements the pipeline's ambient configuration surface: the Target/Mode/Polymorphism
// enums the passes branch on, ConvertOptions (the chainable per-call configuration bag), and Forge,
// the reusable top-level entry point that owns a schema cache the way the teacher's Compiler does.
//
// Grounded on compiler.go: a long-lived struct guarding a schemas cache with a sync.RWMutex, built
// via a constructor and configured with chainable SetX methods rather than functional options,
// with a pluggable JSON encode/decode pair (jsonenc.go) that mirrors WithEncoderJSON/WithDecoderJSON.

// Target identifies which LLM provider's structured-output dialect a Forge call compiles for.
type Target string

const (
	TargetOpenAIStrict Target = "openai_strict"
	TargetGeminiSchema Target = "gemini_schema"
	TargetAnthropicTool Target = "anthropic_tool"
)

// Polymorphism selects which union keyword P2 emits when it removes an OpenAPI discriminator. It
// applies to every target and only to nodes that carry a discriminator; the branches themselves
// are kept as they are, never merged.
type Polymorphism string

const (
	// PolymorphismPreserve keeps the union keyword the discriminated node already used (oneOf
	// stays oneOf, anyOf stays anyOf).
	PolymorphismPreserve Polymorphism = "preserve"
	// PolymorphismFlatten moves the discriminated branches into anyOf.
	PolymorphismFlatten Polymorphism = "flatten"
)

// ConvertOptions configures a single Convert call. The zero value is valid and selects
// TargetOpenAIStrict with default limits.
type ConvertOptions struct {
	target            Target
	mode              Mode
	polymorphism      Polymorphism
	maxRecursionDepth int
	recursionLimit    int
	maxOpaqueFields   int
	rootWrapperKey    string
	defaultBaseURI    string
	stripDescriptions bool
}

// NewConvertOptions returns the default option set.
func NewConvertOptions() *ConvertOptions {
	return &ConvertOptions{
		target:            TargetOpenAIStrict,
		mode:              ModeStrict,
		polymorphism:      PolymorphismPreserve,
		maxRecursionDepth: 50,
		recursionLimit:    3,
		maxOpaqueFields:   30,
		rootWrapperKey:    "result",
		defaultBaseURI:    "",
	}
}

// SetTarget selects the provider dialect to compile for.
func (o *ConvertOptions) SetTarget(t Target) *ConvertOptions {
	o.target = t
	return o
}

// SetMode selects how conservative the pipeline is about dropping constructs it cannot preserve
// for the target dialect.
func (o *ConvertOptions) SetMode(m Mode) *ConvertOptions {
	o.mode = m
	return o
}

// SetPolymorphism selects which union keyword P2 uses for discriminated unions.
func (o *ConvertOptions) SetPolymorphism(p Polymorphism) *ConvertOptions {
	o.polymorphism = p
	return o
}

// SetMaxRecursionDepth sets the traversal depth guard carried on PipelineConfig.MaxDepth. No pass
// reads MaxDepth, so the value does not change the compiled output; how often P5 inlines a
// recursive $ref is set by SetRecursionLimit. Must be >= 1; values <= 0 are clamped to the default.
func (o *ConvertOptions) SetMaxRecursionDepth(n int) *ConvertOptions {
	if n > 0 {
		o.maxRecursionDepth = n
	}
	return o
}

// SetRecursionLimit caps how many times P5 inlines a self-referential $ref along a single branch
// before breaking the cycle with an opaque placeholder. Must be >= 1; values <= 0 are clamped to
// the default.
func (o *ConvertOptions) SetRecursionLimit(n int) *ConvertOptions {
	if n > 0 {
		o.recursionLimit = n
	}
	return o
}

// SetMaxOpaqueFields stores a field-count limit on the options. The value is part of Forge's cache
// key, but ConfigFromOptions does not carry it into PipelineConfig, so no pass reads it.
func (o *ConvertOptions) SetMaxOpaqueFields(n int) *ConvertOptions {
	if n > 0 {
		o.maxOpaqueFields = n
	}
	return o
}

// SetRootWrapperKey overrides the property name P9 uses when a non-object root must be wrapped
// for a provider that requires a top-level object.
func (o *ConvertOptions) SetRootWrapperKey(key string) *ConvertOptions {
	if key != "" {
		o.rootWrapperKey = key
	}
	return o
}

// SetDefaultBaseURI sets the base URI used to resolve the root schema's own relative $id, and any
// $ref with no enclosing $id to join against.
func (o *ConvertOptions) SetDefaultBaseURI(uri string) *ConvertOptions {
	o.defaultBaseURI = uri
	return o
}

// SetStripDescriptions records whether the caller wants title/description removed. The flag is
// part of Forge's cache key, but ConfigFromOptions does not carry it into PipelineConfig: no pass
// reads it, and the compiled output keeps its titles and descriptions.
func (o *ConvertOptions) SetStripDescriptions(strip bool) *ConvertOptions {
	o.stripDescriptions = strip
	return o
}

// Forge is the reusable top-level entry point for this package's compiler. A single Forge may be
// shared across goroutines: its schema cache is guarded by a RWMutex the same way the teacher's
// Compiler guards its own schemas map.
type Forge struct {
	mu    sync.RWMutex
	cache map[string]*compiledEntry

	encode jsonEncodeFunc
	decode jsonDecodeFunc

	defaultBaseURI string
}

type compiledEntry struct {
	schema *Schema
	codec  *Codec
}

// NewForge returns a Forge configured with this package's default JSON engine.
func NewForge() *Forge {
	return &Forge{
		cache:  map[string]*compiledEntry{},
		encode: defaultJSONEncode,
		decode: defaultJSONDecode,
	}
}

// WithEncoderJSON overrides the JSON encoder used for output marshaling (e.g. GoJSONEncode, backed
// by github.com/goccy/go-json, for throughput-sensitive callers that don't need deterministic
// key ordering).
func (f *Forge) WithEncoderJSON(enc jsonEncodeFunc) *Forge {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.encode = enc
	return f
}

// WithDecoderJSON overrides the JSON decoder used for input parsing.
func (f *Forge) WithDecoderJSON(dec jsonDecodeFunc) *Forge {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decode = dec
	return f
}

// SetDefaultBaseURI sets the fallback base URI new ConvertOptions inherit when the caller doesn't
// set one explicitly.
func (f *Forge) SetDefaultBaseURI(uri string) *Forge {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultBaseURI = uri
	return f
}

func (f *Forge) cacheGet(key string) (*compiledEntry, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.cache[key]
	return e, ok
}

func (f *Forge) cacheSet(key string, e *compiledEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache[key] = e
}

// ForgetCache drops every cached compilation, e.g. after the caller knows a source schema changed
// under a key it previously compiled.
func (f *Forge) ForgetCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = map[string]*compiledEntry{}
}
