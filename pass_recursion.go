package schemaforge

import "strings"

// P5 - Recursion breaking, §4.E P5. Inlines every remaining $ref by copying its resolved
// definition in place, breaking cycles once a per-branch expansion counter reaches
// cfg.RecursionLimit by replacing the node with an opaque string placeholder. A no-op for the
// Gemini target, which accepts $ref natively.
func passRecursionBreak(st *passState, root *Schema) (*Schema, error) {
	if st.cfg.Target == TargetGeminiSchema {
		return root, nil
	}

	st.p5Root = root
	out, err := inlineRefs(st, root, "#", map[string]int{}, st.cfg.DefaultBaseURI)
	if err != nil {
		return nil, err
	}
	if out.Boolean == nil {
		out.Defs = nil
	}
	return out, nil
}

func inlineRefs(st *passState, node *Schema, path string, counts map[string]int, baseURI string) (*Schema, error) {
	if node == nil || node.Boolean != nil {
		return node, nil
	}

	if node.ID != "" {
		baseURI = joinURI(baseURI, node.ID)
	}

	if node.Ref != "" {
		return inlineOneRef(st, node, path, counts, baseURI)
	}

	return processChildren(st, node, path, counts, baseURI)
}

func inlineOneRef(st *passState, node *Schema, path string, counts map[string]int, baseURI string) (*Schema, error) {
	res := st.resolver.Resolve(node.Ref, baseURI)
	if res.Unresolvable {
		if st.cfg.Mode == ModeStrict {
			return nil, &UnresolvableRefError{Pointer: path, Ref: node.Ref}
		}
		desc := "unresolvable reference " + node.Ref + " (JSON-encoded)"
		st.codec.Add(Transform{Kind: KindJSONStringParse, Path: path})
		return &Schema{Type: SchemaType{"string"}, Description: &desc}, nil
	}

	def, ok := ResolveSchemaPointer(rootOf(st), res.Pointer)
	if !ok {
		if st.cfg.Mode == ModeStrict {
			return nil, &UnresolvableRefError{Pointer: path, Ref: node.Ref}
		}
		desc := "unresolvable reference " + node.Ref + " (JSON-encoded)"
		st.codec.Add(Transform{Kind: KindJSONStringParse, Path: path})
		return &Schema{Type: SchemaType{"string"}, Description: &desc}, nil
	}

	counts2 := cloneCounts(counts)
	counts2[res.Pointer]++

	if counts2[res.Pointer] > st.cfg.RecursionLimit {
		typeName := defNameFromRef(node.Ref)
		placeholder := introspectPlaceholder(def, 0)
		placeholderJSON, _ := encodeCompact(placeholder)
		desc := "recursive " + typeName + " truncated; JSON-encoded value matching its shape, e.g. " + string(placeholderJSON)
		st.codec.Add(Transform{
			Kind:            KindRecursiveInflate,
			Path:            path,
			InnerSchemaPath: res.Pointer,
			MaxDepth:        st.cfg.RecursionLimit,
		})
		return &Schema{Type: SchemaType{"string"}, Description: &desc}, nil
	}

	defClone := def.Clone()
	defClone.ID = ""
	defClone.Schema = ""
	defClone.Anchor = ""
	defClone.DynamicAnchor = ""
	defClone.DynamicRef = ""

	merged := overlaySiblings(defClone, node)

	return inlineRefs(st, merged, path, counts2, baseURI)
}

// rootOf fetches the root schema currently being compiled. Stashed on passState so P5 can resolve
// against the live (post P0-P4) tree rather than the pre-pipeline snapshot the resolver was built
// from; the resolver's pointer map stays valid since earlier passes rewrite node contents in place
// without relocating $defs.
func rootOf(st *passState) *Schema {
	return st.p5Root
}

func processChildren(st *passState, node *Schema, path string, counts map[string]int, baseURI string) (*Schema, error) {
	var err error
	for k, v := range node.Defs {
		if node.Defs[k], err = inlineRefs(st, v, BuildPath(path, "$defs", k), cloneCounts(counts), baseURI); err != nil {
			return nil, err
		}
	}
	for i, v := range node.AllOf {
		if node.AllOf[i], err = inlineRefs(st, v, BuildPath(path, "allOf", itoa(i)), cloneCounts(counts), baseURI); err != nil {
			return nil, err
		}
	}
	for i, v := range node.AnyOf {
		if node.AnyOf[i], err = inlineRefs(st, v, BuildPath(path, "anyOf", itoa(i)), cloneCounts(counts), baseURI); err != nil {
			return nil, err
		}
	}
	for i, v := range node.OneOf {
		if node.OneOf[i], err = inlineRefs(st, v, BuildPath(path, "oneOf", itoa(i)), cloneCounts(counts), baseURI); err != nil {
			return nil, err
		}
	}
	if node.Not, err = inlineRefs(st, node.Not, BuildPath(path, "not"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	if node.If, err = inlineRefs(st, node.If, BuildPath(path, "if"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	if node.Then, err = inlineRefs(st, node.Then, BuildPath(path, "then"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	if node.Else, err = inlineRefs(st, node.Else, BuildPath(path, "else"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	for k, v := range node.DependentSchemas {
		if node.DependentSchemas[k], err = inlineRefs(st, v, BuildPath(path, "dependentSchemas", k), cloneCounts(counts), baseURI); err != nil {
			return nil, err
		}
	}
	for i, v := range node.PrefixItems {
		if node.PrefixItems[i], err = inlineRefs(st, v, BuildPath(path, "prefixItems", itoa(i)), cloneCounts(counts), baseURI); err != nil {
			return nil, err
		}
	}
	if node.Items, err = inlineRefs(st, node.Items, BuildPath(path, "items"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	if node.Contains, err = inlineRefs(st, node.Contains, BuildPath(path, "contains"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	if node.Properties != nil {
		for k, v := range *node.Properties {
			merged, mErr := inlineRefs(st, v, BuildPath(path, "properties", k), cloneCounts(counts), baseURI)
			if mErr != nil {
				return nil, mErr
			}
			(*node.Properties)[k] = merged
		}
	}
	if node.PatternProperties != nil {
		for k, v := range *node.PatternProperties {
			merged, mErr := inlineRefs(st, v, BuildPath(path, "patternProperties", k), cloneCounts(counts), baseURI)
			if mErr != nil {
				return nil, mErr
			}
			(*node.PatternProperties)[k] = merged
		}
	}
	if node.AdditionalProperties, err = inlineRefs(st, node.AdditionalProperties, BuildPath(path, "additionalProperties"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	if node.PropertyNames, err = inlineRefs(st, node.PropertyNames, BuildPath(path, "propertyNames"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	if node.UnevaluatedItems, err = inlineRefs(st, node.UnevaluatedItems, BuildPath(path, "unevaluatedItems"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	if node.UnevaluatedProperties, err = inlineRefs(st, node.UnevaluatedProperties, BuildPath(path, "unevaluatedProperties"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	if node.ContentSchema, err = inlineRefs(st, node.ContentSchema, BuildPath(path, "contentSchema"), cloneCounts(counts), baseURI); err != nil {
		return nil, err
	}
	return node, nil
}

// overlaySiblings applies node's sibling keywords (everything alongside the original $ref) onto
// base (the cloned, mechanism-stripped definition). title, description, default, examples, type,
// enum, const, nullable and format are last-wins; properties and required deep-merge. No other
// sibling keyword (allOf/anyOf/oneOf, numeric or length bounds, items, additionalProperties, ...)
// is carried into the inlined definition.
func overlaySiblings(base, node *Schema) *Schema {
	out := base
	if node.Title != nil {
		out.Title = node.Title
	}
	if node.Description != nil {
		out.Description = node.Description
	}
	if node.Default != nil {
		out.Default = node.Default
	}
	if node.Examples != nil {
		out.Examples = node.Examples
	}
	if node.Type != nil {
		out.Type = node.Type
	}
	if node.Enum != nil {
		out.Enum = node.Enum
	}
	if node.Const != nil {
		out.Const = node.Const
	}
	if node.Nullable != nil {
		out.Nullable = node.Nullable
	}
	if node.Format != nil {
		out.Format = node.Format
	}

	if node.Required != nil {
		out.Required = unionStrings(out.Required, node.Required)
	}
	if node.Properties != nil {
		merged := SchemaMap{}
		if out.Properties != nil {
			for k, v := range *out.Properties {
				merged[k] = v
			}
		}
		for k, v := range *node.Properties {
			merged[k] = v
		}
		out.Properties = &merged
	}

	return out
}

func cloneCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func defNameFromRef(ref string) string {
	name := ref
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimPrefix(name, "#")
	if name == "" {
		return "value"
	}
	return UnescapeSegment(name)
}

// introspectPlaceholder builds a concrete JSON-shaped placeholder example for def, used in the
// description of a recursion-truncated opaque string so the LLM has a concrete target to imitate.
func introspectPlaceholder(def *Schema, depth int) any {
	if def == nil || depth > 3 {
		return nil
	}
	if def.Boolean != nil {
		return map[string]any{}
	}
	switch {
	case def.HasType("object"):
		out := map[string]any{}
		if def.Properties != nil {
			for k, v := range *def.Properties {
				out[k] = introspectPlaceholder(v, depth+1)
			}
		}
		return out
	case def.HasType("array"):
		return []any{}
	case def.HasType("string"):
		return ""
	case def.HasType("integer"), def.HasType("number"):
		return 0
	case def.HasType("boolean"):
		return false
	case def.HasType("null"):
		return nil
	default:
		if def.Nullable != nil && *def.Nullable {
			return nil
		}
		return map[string]any{}
	}
}
