package schemaforge

import "sort"

// P1 - Composition (`allOf` merge), §4.E P1. Unlike most passes this one is naturally post-order:
// a branch's own nested allOf must be resolved before it is merged into its parent, so this pass
// walks the tree itself (rather than using Fold's pre-order visitor) and merges bottom-up.
func passComposition(st *passState, root *Schema) (*Schema, error) {
	return mergeCompositionRec(st, root, "#")
}

func mergeCompositionRec(st *passState, s *Schema, path string) (*Schema, error) {
	if s == nil || s.Boolean != nil {
		return s, nil
	}

	var err error
	for k, v := range s.Defs {
		if s.Defs[k], err = mergeCompositionRec(st, v, BuildPath(path, "$defs", k)); err != nil {
			return nil, err
		}
	}
	for i, v := range s.AnyOf {
		if s.AnyOf[i], err = mergeCompositionRec(st, v, BuildPath(path, "anyOf", itoa(i))); err != nil {
			return nil, err
		}
	}
	for i, v := range s.OneOf {
		if s.OneOf[i], err = mergeCompositionRec(st, v, BuildPath(path, "oneOf", itoa(i))); err != nil {
			return nil, err
		}
	}
	for i, v := range s.AllOf {
		if s.AllOf[i], err = mergeCompositionRec(st, v, BuildPath(path, "allOf", itoa(i))); err != nil {
			return nil, err
		}
	}
	if s.Not, err = mergeCompositionRec(st, s.Not, BuildPath(path, "not")); err != nil {
		return nil, err
	}
	if s.If, err = mergeCompositionRec(st, s.If, BuildPath(path, "if")); err != nil {
		return nil, err
	}
	if s.Then, err = mergeCompositionRec(st, s.Then, BuildPath(path, "then")); err != nil {
		return nil, err
	}
	if s.Else, err = mergeCompositionRec(st, s.Else, BuildPath(path, "else")); err != nil {
		return nil, err
	}
	for k, v := range s.DependentSchemas {
		if s.DependentSchemas[k], err = mergeCompositionRec(st, v, BuildPath(path, "dependentSchemas", k)); err != nil {
			return nil, err
		}
	}
	for i, v := range s.PrefixItems {
		if s.PrefixItems[i], err = mergeCompositionRec(st, v, BuildPath(path, "prefixItems", itoa(i))); err != nil {
			return nil, err
		}
	}
	if s.Items, err = mergeCompositionRec(st, s.Items, BuildPath(path, "items")); err != nil {
		return nil, err
	}
	if s.Contains, err = mergeCompositionRec(st, s.Contains, BuildPath(path, "contains")); err != nil {
		return nil, err
	}
	if s.Properties != nil {
		for k, v := range *s.Properties {
			merged, mErr := mergeCompositionRec(st, v, BuildPath(path, "properties", k))
			if mErr != nil {
				return nil, mErr
			}
			(*s.Properties)[k] = merged
		}
	}
	if s.PatternProperties != nil {
		for k, v := range *s.PatternProperties {
			merged, mErr := mergeCompositionRec(st, v, BuildPath(path, "patternProperties", k))
			if mErr != nil {
				return nil, mErr
			}
			(*s.PatternProperties)[k] = merged
		}
	}
	if s.AdditionalProperties, err = mergeCompositionRec(st, s.AdditionalProperties, BuildPath(path, "additionalProperties")); err != nil {
		return nil, err
	}
	if s.PropertyNames, err = mergeCompositionRec(st, s.PropertyNames, BuildPath(path, "propertyNames")); err != nil {
		return nil, err
	}
	if s.UnevaluatedItems, err = mergeCompositionRec(st, s.UnevaluatedItems, BuildPath(path, "unevaluatedItems")); err != nil {
		return nil, err
	}
	if s.UnevaluatedProperties, err = mergeCompositionRec(st, s.UnevaluatedProperties, BuildPath(path, "unevaluatedProperties")); err != nil {
		return nil, err
	}
	if s.ContentSchema, err = mergeCompositionRec(st, s.ContentSchema, BuildPath(path, "contentSchema")); err != nil {
		return nil, err
	}

	if len(s.AllOf) == 0 {
		return s, nil
	}

	branches := s.AllOf
	s.AllOf = nil
	acc := s
	for _, branch := range branches {
		merged, mErr := mergeTwo(st, acc, branch, path)
		if mErr != nil {
			return nil, mErr
		}
		acc = merged
	}
	return acc, nil
}

// mergeTwo merges b into a per §4.E P1's rule table, returning a new schema (a and b are not
// mutated; both may still be referenced elsewhere in the tree, e.g. via $ref).
func mergeTwo(st *passState, a, b *Schema, path string) (*Schema, error) {
	if a.IsBooleanFalse() || b.IsBooleanFalse() {
		return NewBooleanSchema(false), nil
	}
	if a.IsBooleanTrue() {
		return b.Clone(), nil
	}
	if b.IsBooleanTrue() {
		return a.Clone(), nil
	}

	out := a.Clone()

	if b.Type != nil {
		merged, err := intersectTypes(a.Type, b.Type)
		if err != nil {
			return nil, &SchemaError{Pointer: path, Message: err.Error(), Err: ErrSchemaConflict}
		}
		out.Type = merged
	}

	if b.Const != nil {
		if out.Const != nil && out.Const.IsSet && b.Const.IsSet && !deepEqualAny(out.Const.Value, b.Const.Value) {
			return nil, &SchemaError{Pointer: path, Message: "conflicting const values in allOf", Err: ErrSchemaConflict}
		}
		out.Const = b.Const
	}

	if b.Enum != nil {
		if out.Enum != nil {
			out.Enum = intersectEnums(out.Enum, b.Enum)
		} else {
			out.Enum = b.Enum
		}
	}

	out.Required = unionStrings(out.Required, b.Required)

	if b.Description != nil {
		if out.Description != nil && *out.Description != "" {
			merged := *out.Description + "\n" + *b.Description
			out.Description = &merged
		} else {
			out.Description = b.Description
		}
	}

	out.Minimum = tightenMax(out.Minimum, b.Minimum)
	out.ExclusiveMinimum = tightenMax(out.ExclusiveMinimum, b.ExclusiveMinimum)
	out.Maximum = tightenMin(out.Maximum, b.Maximum)
	out.ExclusiveMaximum = tightenMin(out.ExclusiveMaximum, b.ExclusiveMaximum)
	out.MinLength = tightenMaxInt(out.MinLength, b.MinLength)
	out.MaxLength = tightenMinInt(out.MaxLength, b.MaxLength)
	out.MinItems = tightenMaxInt(out.MinItems, b.MinItems)
	out.MaxItems = tightenMinInt(out.MaxItems, b.MaxItems)
	out.MinProperties = tightenMaxInt(out.MinProperties, b.MinProperties)
	out.MaxProperties = tightenMinInt(out.MaxProperties, b.MaxProperties)

	if b.Pattern != nil {
		out.Pattern = b.Pattern
	}
	if b.Format != nil {
		out.Format = b.Format
	}

	merged, err := mergeAdditionalPropertiesStrictness(st, out.AdditionalProperties, b.AdditionalProperties, BuildPath(path, "additionalProperties"))
	if err != nil {
		return nil, err
	}
	out.AdditionalProperties = merged

	if b.Properties != nil {
		out.Properties = mergePropertyMaps(st, out.Properties, b.Properties, path)
	}

	if b.Items != nil {
		if out.Items != nil && isObjectSchemaNode(out.Items) && isObjectSchemaNode(b.Items) {
			merged, err := mergeTwo(st, out.Items, b.Items, BuildPath(path, "items"))
			if err != nil {
				return nil, err
			}
			out.Items = merged
		} else {
			out.Items = b.Items
		}
	}

	if a.If != nil || a.Then != nil || a.Else != nil || b.If != nil || b.Then != nil || b.Else != nil {
		st.codec.AddDropped(DroppedConstraint{Path: path, Keyword: "if/then/else", Reason: "dropped during allOf merge"})
		out.If, out.Then, out.Else = nil, nil, nil
	}

	// All remaining keywords: last-wins, per §4.E P1's merge table.
	if b.MultipleOf != nil {
		out.MultipleOf = b.MultipleOf
	}
	if b.UniqueItems != nil {
		out.UniqueItems = b.UniqueItems
	}
	if b.MaxContains != nil {
		out.MaxContains = b.MaxContains
	}
	if b.MinContains != nil {
		out.MinContains = b.MinContains
	}
	if b.DependentRequired != nil {
		out.DependentRequired = b.DependentRequired
	}
	if b.DependentSchemas != nil {
		out.DependentSchemas = b.DependentSchemas
	}
	if b.UnevaluatedItems != nil {
		out.UnevaluatedItems = b.UnevaluatedItems
	}
	if b.UnevaluatedProperties != nil {
		out.UnevaluatedProperties = b.UnevaluatedProperties
	}
	if b.ContentEncoding != nil {
		out.ContentEncoding = b.ContentEncoding
	}
	if b.ContentMediaType != nil {
		out.ContentMediaType = b.ContentMediaType
	}
	if b.ContentSchema != nil {
		out.ContentSchema = b.ContentSchema
	}
	if b.Title != nil {
		out.Title = b.Title
	}
	if b.Default != nil {
		out.Default = b.Default
	}
	if b.Deprecated != nil {
		out.Deprecated = b.Deprecated
	}
	if b.ReadOnly != nil {
		out.ReadOnly = b.ReadOnly
	}
	if b.WriteOnly != nil {
		out.WriteOnly = b.WriteOnly
	}
	if b.Examples != nil {
		out.Examples = b.Examples
	}
	if b.Not != nil {
		out.Not = b.Not
	}
	if b.AnyOf != nil {
		out.AnyOf = b.AnyOf
	}
	if b.OneOf != nil {
		out.OneOf = b.OneOf
	}
	if b.PropertyNames != nil {
		out.PropertyNames = b.PropertyNames
	}
	if b.PrefixItems != nil {
		out.PrefixItems = b.PrefixItems
	}
	if b.Contains != nil {
		out.Contains = b.Contains
	}
	if b.PatternProperties != nil {
		out.PatternProperties = b.PatternProperties
	}
	if b.Extra != nil {
		out.Extra = b.Extra
	}

	return out, nil
}

func isObjectSchemaNode(s *Schema) bool {
	return s != nil && s.Boolean == nil
}

func intersectTypes(a, b SchemaType) (SchemaType, error) {
	if len(a) == 0 {
		return b, nil
	}
	if len(b) == 0 {
		return a, nil
	}
	expand := func(t string) []string {
		if t == "number" {
			return []string{"number", "integer"}
		}
		return []string{t}
	}
	setA := map[string]bool{}
	for _, t := range a {
		for _, x := range expand(t) {
			setA[x] = true
		}
	}
	var out []string
	seen := map[string]bool{}
	for _, t := range b {
		for _, x := range expand(t) {
			if setA[x] && !seen[x] {
				out = append(out, x)
				seen[x] = true
			}
		}
	}
	if len(out) == 0 {
		return nil, errTypeConflict
	}
	// narrow {number, integer} -> {integer}
	hasNumber, hasInteger := false, false
	for _, t := range out {
		if t == "number" {
			hasNumber = true
		}
		if t == "integer" {
			hasInteger = true
		}
	}
	if hasNumber && hasInteger && len(out) == 2 {
		out = []string{"integer"}
	}
	sort.Strings(out)
	return out, nil
}

var errTypeConflict = &typeConflictError{}

type typeConflictError struct{}

func (e *typeConflictError) Error() string { return "empty type intersection" }

func intersectEnums(a, b []any) []any {
	var out []any
	for _, x := range a {
		for _, y := range b {
			if deepEqualAny(x, y) {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, x := range append(append([]string{}, a...), b...) {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

func tightenMax(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *a > *b {
		return a
	}
	return b
}

func tightenMin(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *a < *b {
		return a
	}
	return b
}

func tightenMaxInt(a, b *int64) *int64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *a > *b {
		return a
	}
	return b
}

func tightenMinInt(a, b *int64) *int64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *a < *b {
		return a
	}
	return b
}

// mergeAdditionalPropertiesStrictness implements §4.E P1's additionalProperties rule: false absorbs,
// schema + true keeps the schema, and schema + schema merges like any other schema pair rather than
// one overriding the other.
func mergeAdditionalPropertiesStrictness(st *passState, a, b *Schema, path string) (*Schema, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	if a.IsBooleanFalse() || b.IsBooleanFalse() {
		return NewBooleanSchema(false), nil
	}
	if a.IsBooleanTrue() {
		return b, nil
	}
	if b.IsBooleanTrue() {
		return a, nil
	}
	return mergeTwo(st, a, b, path)
}

func mergePropertyMaps(st *passState, a, b *SchemaMap, path string) *SchemaMap {
	out := SchemaMap{}
	if a != nil {
		for k, v := range *a {
			out[k] = v
		}
	}
	if b != nil {
		for k, v := range *b {
			if existing, ok := out[k]; ok {
				merged, err := mergeTwo(st, existing, v, BuildPath(path, "properties", k))
				if err == nil {
					out[k] = merged
					continue
				}
			}
			out[k] = v
		}
	}
	return &out
}

func deepEqualAny(a, b any) bool {
	return jsonTypeName(a) == jsonTypeName(b) && formatAnyForCompare(a) == formatAnyForCompare(b)
}

func formatAnyForCompare(v any) string {
	b, err := encodeCompact(v)
	if err != nil {
		return ""
	}
	return string(b)
}
