package schemaforge

// This file implements component D: the codec model. A Codec is the reversible transform list a
// pass pipeline run emits alongside the compiled schema; the rehydrator (component G) replays it
// against whatever JSON the provider returned to reconstruct the original-schema-shaped instance.
//
// Grounded on the teacher's result.go (a tagged, path-addressed record list built up during a single
// tree walk, serialized with the same JSON engine as everything else) and schema.go's custom
// MarshalJSON/UnmarshalJSON pattern for representing a closed set of variant shapes as one field.

// CodecSchemaVersion is the codec wire format's major version. The rehydrator refuses to replay a
// codec whose major version differs from its own (CodecVersionMismatchError).
const CodecSchemaVersion = "1"

// TransformKind discriminates the Transform variants recorded in a Codec.
type TransformKind string

const (
	KindMapToArray           TransformKind = "map_to_array"
	KindJSONStringParse      TransformKind = "json_string_parse"
	KindNullableOptional     TransformKind = "nullable_optional"
	KindDiscriminatorAnyOf   TransformKind = "discriminator_any_of"
	KindExtractAdditional    TransformKind = "extract_additional_properties"
	KindRecursiveInflate     TransformKind = "recursive_inflate"
	KindRootObjectWrapper    TransformKind = "root_object_wrapper"
	KindEnumStringify        TransformKind = "enum_stringify"
)

// Transform is one reversible rewrite applied at Path during compilation. Exactly one of the kind-
// specific fields is populated, selected by Kind; this mirrors the teacher's single-struct variant
// encoding (Schema.SchemaType, Schema.ConstValue) rather than a Go interface, since every Transform
// needs to round-trip through JSON as part of the codec's wire format.
type Transform struct {
	Kind TransformKind `json:"kind"`

	// Path is the schema-space pointer where this transform applies, relative to the schema root as
	// it stood when the pass recorded it (a later RootObjectWrapper is undone first on replay).
	// Rehydration translates Path into a data-space path using the SKIP_SINGLE/SKIP_PAIR taxonomy.
	Path string `json:"path"`

	// MapToArray / ExtractAdditionalProperties
	KeyProperty   string `json:"key_property,omitempty"`
	ValueProperty string `json:"value_property,omitempty"`

	// RecursiveInflate: the $defs pointer of the definition that was cut off
	InnerSchemaPath string `json:"inner_schema_path,omitempty"`

	// NullableOptional
	WasRequired bool `json:"was_required,omitempty"`

	// DiscriminatorAnyOf
	DiscriminatorProperty string            `json:"discriminator_property,omitempty"`
	BranchByValue         map[string]string `json:"branch_by_value,omitempty"` // discriminator value -> branch pointer

	// ExtractAdditionalProperties
	WrapperKey string `json:"wrapper_key,omitempty"`

	// RecursiveInflate
	MaxDepth    int    `json:"max_depth,omitempty"`
	OpaqueAtKey string `json:"opaque_at_key,omitempty"`

	// RootObjectWrapper
	RootKey string `json:"root_key,omitempty"`

	// EnumStringify
	OriginalValues []any `json:"original_values,omitempty"`
}

// DroppedConstraint records a schema constraint the pipeline could not preserve for the target
// provider (e.g. a pattern OpenAI strict mode forbids). Rehydrate re-checks them against the
// output: numeric bounds and length/item limits are enforced by clamping or truncating, and the
// rest produce warnings.
type DroppedConstraint struct {
	Path     string `json:"path"`
	Keyword  string `json:"keyword"`
	Reason   string `json:"reason"`
	Original any    `json:"original,omitempty"`
}

// Codec is the full reversible record of one compilation run: every Transform applied, in pipeline
// order (Rehydrate replays them last-to-first, since later passes may act on trees earlier passes
// already rewrote), plus whatever constraints had to be dropped along the way.
type Codec struct {
	Version     string              `json:"version"`
	Target      string              `json:"target"`
	Transforms  []Transform         `json:"transforms"`
	Dropped     []DroppedConstraint `json:"dropped_constraints,omitempty"`
	SourceTitle string              `json:"source_title,omitempty"`
}

// NewCodec returns an empty Codec stamped with the current wire format version.
func NewCodec(target string) *Codec {
	return &Codec{Version: CodecSchemaVersion, Target: target}
}

// Add appends a transform to the codec's replay list.
func (c *Codec) Add(t Transform) {
	c.Transforms = append(c.Transforms, t)
}

// AddDropped records a constraint the pipeline could not preserve.
func (c *Codec) AddDropped(d DroppedConstraint) {
	c.Dropped = append(c.Dropped, d)
}

// CheckVersion returns CodecVersionMismatchError if c's major version does not match the
// rehydrator's expected version.
func (c *Codec) CheckVersion() error {
	if c.Version != CodecSchemaVersion {
		return &CodecVersionMismatchError{Expected: CodecSchemaVersion, Actual: c.Version}
	}
	return nil
}

// TransformsAt returns every transform recorded at exactly Path, in recorded order.
func (c *Codec) TransformsAt(path string) []Transform {
	var out []Transform
	for _, t := range c.Transforms {
		if t.Path == path {
			out = append(out, t)
		}
	}
	return out
}
