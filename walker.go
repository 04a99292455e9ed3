package schemaforge

import (
	"maps"
	"slices"
)

// This file implements component C: a unified AST traversal over the JSON Schema keyword taxonomy,
// used by every pass that needs to visit or rewrite the whole tree rather than a fixed shape.
//
// Adding a new recursive keyword to Schema requires updating these sites: the field itself in
// schema.go, Schema.Clone, Fold and Children below, and the SKIP_SINGLE/SKIP_PAIR/ITEMS taxonomy in
// this file (used again by rehydrate.go's DataWalker and P9's semantic-depth count).

// WalkAction tells Fold what to do with the (possibly replaced) node it just visited.
type WalkAction int

const (
	// Continue replaces the node with the visitor's returned value and recurses into its children.
	Continue WalkAction = iota
	// Replace replaces the node with the visitor's returned value and does NOT recurse into the
	// former children — used when a visitor opaque-stringifies or otherwise seals a subtree.
	Replace
)

// Visitor is called once per schema node during Fold, with the node's RFC 6901 pointer relative to
// the root of the fold. It returns the (possibly new) node and whether Fold should recurse into it.
type Visitor func(node *Schema, path string) (*Schema, WalkAction)

// Fold performs a depth-first traversal of s, calling visit at every node (including s itself) and
// rebuilding the tree with whatever the visitor returns. Traversal order is deterministic: map
// keys are visited in sorted order, array children in index order.
func Fold(s *Schema, path string, visit Visitor) *Schema {
	if s == nil {
		return nil
	}
	node, action := visit(s, path)
	if node == nil || action == Replace {
		return node
	}
	if node.Boolean != nil {
		return node
	}

	if node.Defs != nil {
		node.Defs = foldSchemaValueMap(node.Defs, BuildPath(path, "$defs"), visit)
	}
	if node.AllOf != nil {
		node.AllOf = foldSchemaSlice(node.AllOf, BuildPath(path, "allOf"), visit)
	}
	if node.AnyOf != nil {
		node.AnyOf = foldSchemaSlice(node.AnyOf, BuildPath(path, "anyOf"), visit)
	}
	if node.OneOf != nil {
		node.OneOf = foldSchemaSlice(node.OneOf, BuildPath(path, "oneOf"), visit)
	}
	node.Not = Fold(node.Not, BuildPath(path, "not"), visit)
	node.If = Fold(node.If, BuildPath(path, "if"), visit)
	node.Then = Fold(node.Then, BuildPath(path, "then"), visit)
	node.Else = Fold(node.Else, BuildPath(path, "else"), visit)
	if node.DependentSchemas != nil {
		node.DependentSchemas = foldSchemaValueMap(node.DependentSchemas, BuildPath(path, "dependentSchemas"), visit)
	}
	if node.PrefixItems != nil {
		node.PrefixItems = foldSchemaSlice(node.PrefixItems, BuildPath(path, "prefixItems"), visit)
	}
	node.Items = Fold(node.Items, BuildPath(path, "items"), visit)
	node.Contains = Fold(node.Contains, BuildPath(path, "contains"), visit)
	if node.Properties != nil {
		m := foldSchemaMap(*node.Properties, BuildPath(path, "properties"), visit)
		node.Properties = &m
	}
	if node.PatternProperties != nil {
		m := foldSchemaMap(*node.PatternProperties, BuildPath(path, "patternProperties"), visit)
		node.PatternProperties = &m
	}
	node.AdditionalProperties = Fold(node.AdditionalProperties, BuildPath(path, "additionalProperties"), visit)
	node.PropertyNames = Fold(node.PropertyNames, BuildPath(path, "propertyNames"), visit)
	node.UnevaluatedItems = Fold(node.UnevaluatedItems, BuildPath(path, "unevaluatedItems"), visit)
	node.UnevaluatedProperties = Fold(node.UnevaluatedProperties, BuildPath(path, "unevaluatedProperties"), visit)
	node.ContentSchema = Fold(node.ContentSchema, BuildPath(path, "contentSchema"), visit)

	return node
}

func foldSchemaSlice(in []*Schema, path string, visit Visitor) []*Schema {
	out := make([]*Schema, len(in))
	for i, s := range in {
		out[i] = Fold(s, BuildPath(path, itoa(i)), visit)
	}
	return out
}

func foldSchemaValueMap(in map[string]*Schema, path string, visit Visitor) map[string]*Schema {
	out := make(map[string]*Schema, len(in))
	for _, k := range slices.Sorted(maps.Keys(in)) {
		out[k] = Fold(in[k], BuildPath(path, k), visit)
	}
	return out
}

func foldSchemaMap(in SchemaMap, path string, visit Visitor) SchemaMap {
	out := make(SchemaMap, len(in))
	for _, k := range slices.Sorted(maps.Keys(in)) {
		out[k] = Fold(in[k], BuildPath(path, k), visit)
	}
	return out
}

// Children returns every direct schema child of s as (pointer-segment, schema) pairs, in the
// deterministic order Fold uses. It's the read-only counterpart to Fold, used by passes that only
// need to inspect structure (the strict-mode validator, the reference resolver's $id walk).
func Children(s *Schema) []struct {
	Segment string
	Node    *Schema
} {
	if s == nil || s.Boolean != nil {
		return nil
	}
	var out []struct {
		Segment string
		Node    *Schema
	}
	add := func(seg string, n *Schema) {
		if n != nil {
			out = append(out, struct {
				Segment string
				Node    *Schema
			}{seg, n})
		}
	}
	for _, k := range slices.Sorted(maps.Keys(s.Defs)) {
		add("$defs/"+EscapeSegment(k), s.Defs[k])
	}
	for i, v := range s.AllOf {
		add("allOf/"+itoa(i), v)
	}
	for i, v := range s.AnyOf {
		add("anyOf/"+itoa(i), v)
	}
	for i, v := range s.OneOf {
		add("oneOf/"+itoa(i), v)
	}
	add("not", s.Not)
	add("if", s.If)
	add("then", s.Then)
	add("else", s.Else)
	for _, k := range slices.Sorted(maps.Keys(s.DependentSchemas)) {
		add("dependentSchemas/"+EscapeSegment(k), s.DependentSchemas[k])
	}
	for i, v := range s.PrefixItems {
		add("prefixItems/"+itoa(i), v)
	}
	add("items", s.Items)
	add("contains", s.Contains)
	if s.Properties != nil {
		for _, k := range slices.Sorted(maps.Keys(*s.Properties)) {
			add("properties/"+EscapeSegment(k), (*s.Properties)[k])
		}
	}
	if s.PatternProperties != nil {
		for _, k := range slices.Sorted(maps.Keys(*s.PatternProperties)) {
			add("patternProperties/"+EscapeSegment(k), (*s.PatternProperties)[k])
		}
	}
	add("additionalProperties", s.AdditionalProperties)
	add("propertyNames", s.PropertyNames)
	add("unevaluatedItems", s.UnevaluatedItems)
	add("unevaluatedProperties", s.UnevaluatedProperties)
	add("contentSchema", s.ContentSchema)
	return out
}

// Keyword taxonomy for codec-path -> data navigation (§4.G.1): rehydrate.go's DataWalker uses the
// skip sets to decide which segments are schema-structural rather than data-shape, and P9's
// compatibility visitor uses DataShapeKeywords for its semantic-depth count.
var (
	// SkipSingleKeywords consume a single path segment without a following discriminator.
	SkipSingleKeywords = map[string]bool{
		"additionalProperties":  true,
		"unevaluatedProperties": true,
		"unevaluatedItems":      true,
		"contains":              true,
		"propertyNames":         true,
		"not":                   true,
		"if":                    true,
		"then":                  true,
		"else":                  true,
		"prefixItems":           true,
	}

	// SkipPairKeywords consume the keyword plus the next segment (an index or a map key).
	SkipPairKeywords = map[string]bool{
		"anyOf":             true,
		"oneOf":             true,
		"allOf":             true,
		"$defs":             true,
		"definitions":       true,
		"dependentSchemas":  true,
		"patternProperties": true,
	}

	// DataShapeKeywords are the keywords that increment semantic_depth in P9's compatibility
	// visitor (§4.E.9); combinators and conditionals do not.
	DataShapeKeywords = map[string]bool{
		"properties":            true,
		"patternProperties":     true,
		"additionalProperties":  true,
		"items":                 true,
		"prefixItems":           true,
		"unevaluatedProperties": true,
		"unevaluatedItems":      true,
		"contains":              true,
	}
)
