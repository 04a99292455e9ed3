package schemaforge

import (
	"maps"
	"strconv"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// knownSchemaFields lists every keyword this module understands. Anything else collected during
// UnmarshalJSON is preserved verbatim in Extra so vendor extensions (x-*) and dialect-specific
// keywords survive a compile/marshal round trip even though the pipeline never rewrites them.
var knownSchemaFields = map[string]struct{}{
	"$id": {}, "$schema": {}, "$ref": {}, "$dynamicRef": {}, "$anchor": {}, "$dynamicAnchor": {},
	"$defs": {}, "definitions": {}, "$comment": {},

	"allOf": {}, "anyOf": {}, "oneOf": {}, "not": {}, "if": {}, "then": {}, "else": {},
	"dependentSchemas": {}, "prefixItems": {}, "items": {}, "additionalItems": {}, "contains": {},
	"properties": {}, "patternProperties": {}, "additionalProperties": {}, "propertyNames": {},
	"unevaluatedItems": {}, "unevaluatedProperties": {},

	"type": {}, "enum": {}, "const": {},
	"multipleOf": {}, "maximum": {}, "exclusiveMaximum": {}, "minimum": {}, "exclusiveMinimum": {},
	"maxLength": {}, "minLength": {}, "pattern": {},
	"maxItems": {}, "minItems": {}, "uniqueItems": {}, "maxContains": {}, "minContains": {},
	"maxProperties": {}, "minProperties": {}, "required": {}, "dependentRequired": {},

	"format": {},
	"contentEncoding": {}, "contentMediaType": {}, "contentSchema": {},

	"title": {}, "description": {}, "default": {}, "deprecated": {}, "readOnly": {}, "writeOnly": {},
	"examples": {},

	// OpenAPI / dialect extensions this module normalizes in P0/P2.
	"nullable": {}, "discriminator": {},
}

// Schema is the recursive tagged value of §3: null | boolean | number | string | ordered sequence
// of Schema | mapping from string to Schema, represented as a concrete struct with one field per
// JSON Schema keyword rather than a generic `any` tree, because the keyword vocabulary is fixed
// and known ahead of time. Boolean schemas (true/false) are the sole encoding of the null/number/
// string/array/object leaves that collapse to "accept all"/"reject all".
type Schema struct {
	// Boolean is non-nil when this node is one of the two boolean schemas.
	Boolean *bool `json:"-"`

	ID     string `json:"$id,omitempty"`
	Schema string `json:"$schema,omitempty"`

	Ref           string `json:"$ref,omitempty"`
	DynamicRef    string `json:"$dynamicRef,omitempty"`
	Anchor        string `json:"$anchor,omitempty"`
	DynamicAnchor string `json:"$dynamicAnchor,omitempty"`

	Defs map[string]*Schema `json:"$defs,omitempty"`

	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`

	If               *Schema            `json:"if,omitempty"`
	Then             *Schema            `json:"then,omitempty"`
	Else             *Schema            `json:"else,omitempty"`
	DependentSchemas map[string]*Schema `json:"dependentSchemas,omitempty"`

	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	Items       *Schema   `json:"items,omitempty"`
	Contains    *Schema   `json:"contains,omitempty"`

	Properties           *SchemaMap `json:"properties,omitempty"`
	PatternProperties    *SchemaMap `json:"patternProperties,omitempty"`
	AdditionalProperties *Schema    `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema    `json:"propertyNames,omitempty"`

	Type  SchemaType  `json:"type,omitempty"`
	Enum  []any       `json:"enum,omitempty"`
	Const *ConstValue `json:"const,omitempty"`

	MultipleOf       *float64 `json:"multipleOf,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	Minimum          *float64 `json:"minimum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`

	MaxLength *int64  `json:"maxLength,omitempty"`
	MinLength *int64  `json:"minLength,omitempty"`
	Pattern   *string `json:"pattern,omitempty"`

	MaxItems    *int64 `json:"maxItems,omitempty"`
	MinItems    *int64 `json:"minItems,omitempty"`
	UniqueItems *bool  `json:"uniqueItems,omitempty"`
	MaxContains *int64 `json:"maxContains,omitempty"`
	MinContains *int64 `json:"minContains,omitempty"`

	UnevaluatedItems *Schema `json:"unevaluatedItems,omitempty"`

	MaxProperties         *int64              `json:"maxProperties,omitempty"`
	MinProperties         *int64              `json:"minProperties,omitempty"`
	Required              []string            `json:"required,omitempty"`
	DependentRequired     map[string][]string `json:"dependentRequired,omitempty"`
	UnevaluatedProperties *Schema             `json:"unevaluatedProperties,omitempty"`

	Format *string `json:"format,omitempty"`

	ContentEncoding  *string `json:"contentEncoding,omitempty"`
	ContentMediaType *string `json:"contentMediaType,omitempty"`
	ContentSchema    *Schema `json:"contentSchema,omitempty"`

	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Default     any     `json:"default,omitempty"`
	Deprecated  *bool   `json:"deprecated,omitempty"`
	ReadOnly    *bool   `json:"readOnly,omitempty"`
	WriteOnly   *bool   `json:"writeOnly,omitempty"`
	Examples    []any   `json:"examples,omitempty"`

	// Nullable and Discriminator are OpenAPI-dialect extensions. P0 folds Nullable into Type;
	// P2 collapses Discriminator into AnyOf/OneOf.
	Nullable      *bool          `json:"nullable,omitempty"`
	Discriminator *Discriminator `json:"discriminator,omitempty"`

	// Extra preserves any keyword this module does not know about, including vendor (x-*)
	// extensions, so they survive a compile round trip untouched.
	Extra map[string]any `json:"-"`
}

// Discriminator mirrors the OpenAPI 3.x discriminator object.
type Discriminator struct {
	PropertyName string            `json:"propertyName"`
	Mapping      map[string]string `json:"mapping,omitempty"`
}

// SchemaMap is a map of string keys to *Schema values, used for properties/patternProperties/$defs
// style maps where deterministic marshaling and nil-safety matter.
type SchemaMap map[string]*Schema

// SchemaType holds one or more JSON Schema type names, serializing as a bare string when there is
// exactly one (matching how almost every real-world schema spells `"type": "object"`).
type SchemaType []string

// ConstValue distinguishes "const absent" from "const is explicitly null".
type ConstValue struct {
	Value any
	IsSet bool
}

// NewBooleanSchema constructs one of the two boolean schema leaves.
func NewBooleanSchema(accept bool) *Schema {
	b := accept
	return &Schema{Boolean: &b}
}

// IsBooleanTrue reports whether this schema is the "accept all" boolean leaf.
func (s *Schema) IsBooleanTrue() bool {
	return s != nil && s.Boolean != nil && *s.Boolean
}

// IsBooleanFalse reports whether this schema is the "reject all" boolean leaf.
func (s *Schema) IsBooleanFalse() bool {
	return s != nil && s.Boolean != nil && !*s.Boolean
}

// HasType reports whether the schema's type set contains t.
func (s *Schema) HasType(t string) bool {
	for _, x := range s.Type {
		if x == t {
			return true
		}
	}
	return false
}

// IsObjectType reports whether the schema declares (only) type "object".
func (s *Schema) IsObjectType() bool {
	return len(s.Type) == 1 && s.Type[0] == "object"
}

// IsArrayType reports whether the schema declares (only) type "array".
func (s *Schema) IsArrayType() bool {
	return len(s.Type) == 1 && s.Type[0] == "array"
}

// ParseSchema parses raw JSON bytes into a Schema tree without resolving any references.
func ParseSchema(raw []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, &SchemaError{Message: "parse: " + err.Error(), Err: err}
	}
	return s, nil
}

// Clone returns a deep copy of the schema tree. The pipeline uses this when a pass needs to splice
// a subtree into multiple locations (P5's ref inlining, the extractor's component rewriting) so
// that no two locations in the output tree alias the same *Schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := *s
	if s.Boolean != nil {
		b := *s.Boolean
		c.Boolean = &b
		return &c
	}

	c.Defs = cloneSchemaValueMap(s.Defs)
	c.AllOf = cloneSchemaSlice(s.AllOf)
	c.AnyOf = cloneSchemaSlice(s.AnyOf)
	c.OneOf = cloneSchemaSlice(s.OneOf)
	c.Not = s.Not.Clone()
	c.If = s.If.Clone()
	c.Then = s.Then.Clone()
	c.Else = s.Else.Clone()
	c.DependentSchemas = cloneSchemaValueMap(s.DependentSchemas)
	c.PrefixItems = cloneSchemaSlice(s.PrefixItems)
	c.Items = s.Items.Clone()
	c.Contains = s.Contains.Clone()
	c.Properties = cloneSchemaMapPtr(s.Properties)
	c.PatternProperties = cloneSchemaMapPtr(s.PatternProperties)
	c.AdditionalProperties = s.AdditionalProperties.Clone()
	c.PropertyNames = s.PropertyNames.Clone()
	c.UnevaluatedItems = s.UnevaluatedItems.Clone()
	c.UnevaluatedProperties = s.UnevaluatedProperties.Clone()
	c.ContentSchema = s.ContentSchema.Clone()

	if s.Type != nil {
		c.Type = append(SchemaType{}, s.Type...)
	}
	if s.Enum != nil {
		c.Enum = append([]any{}, s.Enum...)
	}
	if s.Const != nil {
		cv := *s.Const
		c.Const = &cv
	}
	if s.Required != nil {
		c.Required = append([]string{}, s.Required...)
	}
	if s.DependentRequired != nil {
		c.DependentRequired = make(map[string][]string, len(s.DependentRequired))
		for k, v := range s.DependentRequired {
			c.DependentRequired[k] = append([]string{}, v...)
		}
	}
	if s.Examples != nil {
		c.Examples = append([]any{}, s.Examples...)
	}
	if s.Extra != nil {
		c.Extra = make(map[string]any, len(s.Extra))
		maps.Copy(c.Extra, s.Extra)
	}
	if s.Discriminator != nil {
		d := *s.Discriminator
		if s.Discriminator.Mapping != nil {
			d.Mapping = make(map[string]string, len(s.Discriminator.Mapping))
			maps.Copy(d.Mapping, s.Discriminator.Mapping)
		}
		c.Discriminator = &d
	}
	return &c
}

func cloneSchemaSlice(in []*Schema) []*Schema {
	if in == nil {
		return nil
	}
	out := make([]*Schema, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func cloneSchemaValueMap(in map[string]*Schema) map[string]*Schema {
	if in == nil {
		return nil
	}
	out := make(map[string]*Schema, len(in))
	for k, s := range in {
		out[k] = s.Clone()
	}
	return out
}

func cloneSchemaMapPtr(in *SchemaMap) *SchemaMap {
	if in == nil {
		return nil
	}
	out := make(SchemaMap, len(*in))
	for k, s := range *in {
		out[k] = s.Clone()
	}
	return &out
}

// MarshalJSON implements deterministic schema serialization, matching the teacher's approach of
// marshaling through an alias struct and then re-injecting fields that need custom handling
// (const's nil-vs-absent distinction, extra/vendor fields).
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s.Boolean != nil {
		return json.Marshal(*s.Boolean, json.Deterministic(true))
	}

	type alias Schema
	data, err := json.Marshal((*alias)(s), json.Deterministic(true))
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	if s.Const != nil {
		result["const"] = s.Const.Value
	}
	maps.Copy(result, s.Extra)

	return json.Marshal(result, json.Deterministic(true))
}

// MarshalJSONTo implements jsontext-based marshaling for use inside larger deterministic documents
// (the codec and manifest both embed schemas this way).
func (s *Schema) MarshalJSONTo(enc *jsontext.Encoder, opts json.Options) error {
	opts = json.JoinOptions(opts, json.Deterministic(true))
	if s.Boolean != nil {
		return json.MarshalEncode(enc, *s.Boolean, opts)
	}
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}
	return json.MarshalEncode(enc, result, opts)
}

// UnmarshalJSON parses a schema node, handling boolean-schema leaves, Draft-7 "definitions", the
// items/additionalItems-vs-prefixItems/items polymorphism, and extra-field collection.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		s.Boolean = &b
		return nil
	}

	type alias Schema
	aux := &struct {
		Items           jsontext.Value `json:"items,omitempty"`
		AdditionalItems *Schema        `json:"additionalItems,omitempty"`
		*alias
	}{alias: (*alias)(s)}

	if err := json.Unmarshal(data, aux); err != nil {
		return &SchemaError{Message: err.Error(), Err: err}
	}

	if len(aux.Items) > 0 {
		trimmed := trimLeadingSpace(aux.Items)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(aux.Items, &s.PrefixItems); err != nil {
				return err
			}
			if aux.AdditionalItems != nil {
				s.Items = aux.AdditionalItems
			}
		} else {
			if err := json.Unmarshal(aux.Items, &s.Items); err != nil {
				return err
			}
		}
	}

	var raw map[string]jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if defsData, ok := raw["definitions"]; ok && s.Defs == nil {
		var defs map[string]*Schema
		if err := json.Unmarshal(defsData, &defs); err != nil {
			return err
		}
		s.Defs = defs
	}

	if constData, ok := raw["const"]; ok {
		s.Const = &ConstValue{}
		if err := s.Const.UnmarshalJSON(constData); err != nil {
			return err
		}
	}

	return s.collectExtraFields(data)
}

func trimLeadingSpace(v jsontext.Value) []byte {
	b := []byte(v)
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

func (s *Schema) collectExtraFields(raw []byte) error {
	var all map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		return err
	}
	for key := range knownSchemaFields {
		delete(all, key)
	}
	if len(all) > 0 {
		s.Extra = all
	}
	return nil
}

// MarshalJSON serializes a SchemaMap deterministically.
func (sm SchemaMap) MarshalJSON() ([]byte, error) {
	m := make(map[string]*Schema, len(sm))
	maps.Copy(m, sm)
	return json.Marshal(m, json.Deterministic(true))
}

// UnmarshalJSON parses a SchemaMap.
func (sm *SchemaMap) UnmarshalJSON(data []byte) error {
	m := make(map[string]*Schema)
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*sm = SchemaMap(m)
	return nil
}

// MarshalJSON renders a single-element type set as a bare string, matching idiomatic schema output.
func (st SchemaType) MarshalJSON() ([]byte, error) {
	if len(st) == 1 {
		return json.Marshal(st[0])
	}
	return json.Marshal([]string(st))
}

// UnmarshalJSON accepts both the bare-string and array forms of "type".
func (st *SchemaType) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*st = SchemaType{single}
		return nil
	}
	var multi []string
	if err := json.Unmarshal(data, &multi); err == nil {
		*st = SchemaType(multi)
		return nil
	}
	return &SchemaError{Message: "type must be a string or array of strings"}
}

// UnmarshalJSON distinguishes an explicit `null` const from an absent one.
func (cv *ConstValue) UnmarshalJSON(data []byte) error {
	cv.IsSet = true
	if string(data) == "null" {
		cv.Value = nil
		return nil
	}
	return json.Unmarshal(data, &cv.Value)
}

// MarshalJSON renders the const value, including explicit null.
func (cv ConstValue) MarshalJSON() ([]byte, error) {
	if cv.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(cv.Value)
}

// jsonTypeName classifies a decoded `any` value per the JSON type names used by EnumStringify's
// mixed-type detection (§4.E.9).
func jsonTypeName(v any) string {
	switch vv := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, int, int64, json.RawValue:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		_ = vv
		return "unknown"
	}
}

func itoa(i int) string { return strconv.Itoa(i) }
