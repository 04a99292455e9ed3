package schemaforge

import (
	"context"

	"github.com/google/uuid"
)

// This file implements component E's orchestration: the ordered run of passes P0-P9 over a schema,
// threading a shared Codec accumulator and a Config the way the teacher's compiler.go threads a
// single Compiler through schema initialization. Each pass lives in its own pass_*.go file.

// Mode selects how conservative the pipeline is about dropping constructs it cannot preserve.
type Mode string

const (
	ModeStrict     Mode = "strict"
	ModePermissive Mode = "permissive"
)

// PipelineConfig is the Config referenced throughout §4.E: target dialect, strictness, and the
// traversal guards every pass respects.
type PipelineConfig struct {
	Target          Target
	Mode            Mode
	MaxDepth        int
	RecursionLimit  int
	Polymorphism    Polymorphism
	RootWrapperKey  string
	DefaultBaseURI  string
}

// ConfigFromOptions builds a PipelineConfig from the public ConvertOptions, filling in the
// §6 defaults (max_depth 50, recursion_limit 3) where the caller left them at zero.
func ConfigFromOptions(o *ConvertOptions) PipelineConfig {
	maxDepth := o.maxRecursionDepth
	if maxDepth <= 0 {
		maxDepth = 50
	}
	mode := o.mode
	if mode == "" {
		mode = ModeStrict
	}
	recursionLimit := o.recursionLimit
	if recursionLimit <= 0 {
		recursionLimit = 3
	}
	target := o.target
	if target == "" {
		target = TargetOpenAIStrict
	}
	return PipelineConfig{
		Target:         target,
		Mode:           mode,
		MaxDepth:       maxDepth,
		RecursionLimit: recursionLimit,
		Polymorphism:   o.polymorphism,
		RootWrapperKey: o.rootWrapperKey,
		DefaultBaseURI: o.defaultBaseURI,
	}
}

// ProviderCompatDiagnostic is an advisory note produced during P9; it is not an error and never
// aborts compilation.
type ProviderCompatDiagnostic struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
	Target string `json:"target"`
	Hint string `json:"hint"`
	Meta map[string]any `json:"meta,omitempty"`
}

// passState is threaded through every pass: the shared codec accumulator, the reference resolver
// built once up front, and the diagnostics collected along the way.
type passState struct {
	ctx        context.Context
	cfg        PipelineConfig
	codec      *Codec
	resolver   *RefResolver
	diagnostics []ProviderCompatDiagnostic

	// p5Root is the tree P5 resolves $defs pointers against; set just before passRecursionBreak runs.
	p5Root *Schema

	// pendingAdditional carries the typed additionalProperties schema P6 sealed away at a path,
	// for P7 to pick back up and extract into a fixed property.
	pendingAdditional map[string]*Schema
}

func (p *passState) diagnose(d ProviderCompatDiagnostic) {
	p.diagnostics = append(p.diagnostics, d)
}

// CompileResult is the return value of Compile: the rewritten schema, the codec that reverses it,
// and any advisory provider-compatibility diagnostics gathered along the way.
type CompileResult struct {
	Schema       *Schema
	Codec        *Codec
	Diagnostics  []ProviderCompatDiagnostic
	TraceID      string
}

// Compile runs the full P0-P9 pipeline over root and returns the rewritten schema plus its codec.
// root is not mutated; every pass either clones subtrees it rewrites or operates on a fresh clone
// taken up front.
func Compile(ctx context.Context, root *Schema, cfg PipelineConfig) (*CompileResult, error) {
	if root == nil {
		return nil, &SchemaError{Message: "root schema is nil", Err: ErrSchemaIsNil}
	}

	working := root.Clone()
	resolver := BuildRefResolver(working, cfg.DefaultBaseURI)
	traceID := uuid.NewString()
	ctx = WithLogger(ctx, LoggerFromContext(ctx).With("compileTraceID", traceID))
	st := &passState{ctx: ctx, cfg: cfg, codec: NewCodec(string(cfg.Target)), resolver: resolver, pendingAdditional: map[string]*Schema{}}

	var err error
	working, err = passNormalize(st, working)
	if err != nil {
		return nil, err
	}
	working, err = passComposition(st, working)
	if err != nil {
		return nil, err
	}
	working, err = passDiscriminator(st, working)
	if err != nil {
		return nil, err
	}
	working, err = passMapDetection(st, working)
	if err != nil {
		return nil, err
	}
	working, err = passOpaqueStringify(st, working)
	if err != nil {
		return nil, err
	}
	working, err = passRecursionBreak(st, working)
	if err != nil {
		return nil, err
	}
	working, err = passStrictSeal(st, working)
	if err != nil {
		return nil, err
	}
	working, err = passExtractAdditional(st, working)
	if err != nil {
		return nil, err
	}
	working, err = passAdaptiveOpaque(st, working)
	if err != nil {
		return nil, err
	}
	working, err = passProviderCompat(st, working)
	if err != nil {
		return nil, err
	}

	logPassApplied(ctx, "pipeline", "#", "compiled")
	return &CompileResult{Schema: working, Codec: st.codec, Diagnostics: st.diagnostics, TraceID: traceID}, nil
}
