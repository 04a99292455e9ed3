package schemaforge

import (
	"sort"
	"strings"
)

// P9 - Provider compatibility, §4.E.9. Target-specific checks and mutations, active only for
// OpenAI-strict + strict mode; every other target/mode combination is a pass-through. Runs root-
// type enforcement followed by a single compatibility visitor carrying two independent depth
// counters (recursion_depth, a hard guard, and semantic_depth, which only advances through
// data-shape keywords).
const openAIMaxSemanticDepth = 10
const openAIHardRecursionGuard = 100

func passProviderCompat(st *passState, root *Schema) (*Schema, error) {
	if st.cfg.Target != TargetOpenAIStrict || st.cfg.Mode != ModeStrict {
		return root, nil
	}

	root = enforceRootType(st, root)

	v := &compatVisitor{st: st}
	out := v.visit(root, "#", 0, 0, true)
	return out, nil
}

func enforceRootType(st *passState, root *Schema) *Schema {
	if root.Boolean != nil {
		return root
	}
	needsWrap := !root.IsObjectType() || len(root.AnyOf) > 0 || len(root.OneOf) > 0 || len(root.AllOf) > 0 || root.Not != nil || len(root.Enum) > 0
	if !needsWrap {
		return root
	}

	key := st.cfg.RootWrapperKey
	if key == "" {
		key = "result"
	}

	properties := SchemaMap{key: root}
	wrapped := &Schema{
		Type:                 SchemaType{"object"},
		Properties:           &properties,
		Required:             []string{key},
		AdditionalProperties: NewBooleanSchema(false),
	}

	st.codec.Add(Transform{Kind: KindRootObjectWrapper, Path: "#", RootKey: key})
	st.diagnose(ProviderCompatDiagnostic{Kind: "RootTypeIncompatible", Path: "#", Target: string(st.cfg.Target), Hint: "root schema wrapped in an object for a provider that requires an object root", Meta: map[string]any{"actual_type": rootActualType(root)}})

	if root.Properties != nil {
		sealObject(st, root, BuildPath("#", "properties", key))
	}

	return wrapped
}

func rootActualType(root *Schema) string {
	if len(root.Type) > 0 {
		return root.Type[0]
	}
	switch {
	case len(root.AnyOf) > 0:
		return "anyOf"
	case len(root.OneOf) > 0:
		return "oneOf"
	case len(root.AllOf) > 0:
		return "allOf"
	case root.Not != nil:
		return "not"
	case len(root.Enum) > 0:
		return "enum"
	default:
		return "unknown"
	}
}

type compatVisitor struct {
	st *passState
}

func (v *compatVisitor) visit(node *Schema, path string, recursionDepth, semanticDepth int, isRoot bool) *Schema {
	if node == nil {
		return nil
	}
	if node.Boolean != nil {
		v.st.codec.Add(Transform{Kind: KindJSONStringParse, Path: path})
		desc := "JSON-encoded value"
		return &Schema{Type: SchemaType{"string"}, Description: &desc}
	}

	if recursionDepth >= openAIHardRecursionGuard {
		return v.opaqueReplace(node, path)
	}

	if semanticDepth >= openAIMaxSemanticDepth && !isRoot {
		if isPrimitiveOrNullablePrimitive(node) {
			// pass through unchanged
		} else {
			v.st.diagnose(ProviderCompatDiagnostic{Kind: "DepthBudgetExceeded", Path: path, Target: string(v.st.cfg.Target), Hint: "semantic depth limit reached; replaced with opaque string"})
			return v.opaqueReplace(node, path)
		}
	}

	node.Anchor = ""
	node.DynamicAnchor = ""
	node.DynamicRef = ""

	if len(node.Enum) > 0 && mixedEnumTypeCount(node.Enum) >= 2 {
		node = v.stringifyEnum(node, path)
	}

	if isUnconstrainedNonRoot(node, isRoot) {
		v.st.diagnose(ProviderCompatDiagnostic{Kind: "UnconstrainedSchema", Path: path, Target: string(v.st.cfg.Target), Hint: "schema has no constraining keyword"})
		return v.opaqueReplace(node, path)
	}

	if node.PatternProperties != nil && len(*node.PatternProperties) > 0 {
		if node.HasType("object") && !isEmptyPropertySet(node.Properties) {
			v.st.diagnose(ProviderCompatDiagnostic{Kind: "PatternPropertiesStripped", Path: path, Target: string(v.st.cfg.Target), Hint: "patternProperties not supported alongside explicit properties"})
			v.st.codec.AddDropped(DroppedConstraint{Path: path, Keyword: "patternProperties", Reason: "not supported alongside explicit properties for this provider", Original: *node.PatternProperties})
			node.PatternProperties = nil
		} else {
			v.st.diagnose(ProviderCompatDiagnostic{Kind: "PatternPropertiesStringified", Path: path, Target: string(v.st.cfg.Target), Hint: "patternProperties with no fixed properties cannot be expressed"})
			return v.opaqueReplace(node, path)
		}
	}

	if len(node.Type) > 1 {
		node = v.convertTypeArray(node, path)
	}

	if node.Items != nil && len(node.PrefixItems) > 0 {
		node = v.reconcileItemsPrefix(node, path)
	}

	if len(node.AnyOf) > 0 {
		node.AnyOf = v.stripBareRequiredBranches(node, node.AnyOf, path)
	}
	if len(node.OneOf) > 0 {
		node.OneOf = v.stripBareRequiredBranches(node, node.OneOf, path)
	}

	return v.recurseChildren(node, path, recursionDepth, semanticDepth, isRoot)
}

func (v *compatVisitor) recurseChildren(node *Schema, path string, recursionDepth, semanticDepth int, isRoot bool) *Schema {
	rd := recursionDepth + 1
	dataShapeStep := func(kw string) int {
		if DataShapeKeywords[kw] {
			return semanticDepth + 1
		}
		return semanticDepth
	}

	for i, br := range node.AllOf {
		node.AllOf[i] = v.visit(br, BuildPath(path, "allOf", itoa(i)), rd, semanticDepth, false)
	}
	for i, br := range node.AnyOf {
		node.AnyOf[i] = v.visit(br, BuildPath(path, "anyOf", itoa(i)), rd, semanticDepth, false)
	}
	for i, br := range node.OneOf {
		node.OneOf[i] = v.visit(br, BuildPath(path, "oneOf", itoa(i)), rd, semanticDepth, false)
	}
	if node.Properties != nil {
		for k, child := range *node.Properties {
			(*node.Properties)[k] = v.visit(child, BuildPath(path, "properties", k), rd, dataShapeStep("properties"), false)
		}
	}
	if node.AdditionalProperties != nil && !node.AdditionalProperties.IsBooleanFalse() {
		node.AdditionalProperties = v.visit(node.AdditionalProperties, BuildPath(path, "additionalProperties"), rd, dataShapeStep("additionalProperties"), false)
	}
	if node.Items != nil {
		node.Items = v.visit(node.Items, BuildPath(path, "items"), rd, dataShapeStep("items"), false)
	}
	for i, it := range node.PrefixItems {
		node.PrefixItems[i] = v.visit(it, BuildPath(path, "prefixItems", itoa(i)), rd, dataShapeStep("prefixItems"), false)
	}

	return node
}

func (v *compatVisitor) opaqueReplace(node *Schema, path string) *Schema {
	v.st.codec.Add(Transform{Kind: KindJSONStringParse, Path: path})
	desc := renderStructuralDescription(node, 0, 30)
	return &Schema{Type: SchemaType{"string"}, Description: &desc}
}

func isPrimitiveOrNullablePrimitive(node *Schema) bool {
	primitive := func(t string) bool {
		return t == "string" || t == "integer" || t == "number" || t == "boolean" || t == "null"
	}
	if len(node.Type) == 0 {
		return false
	}
	for _, t := range node.Type {
		if !primitive(t) {
			return false
		}
	}
	return true
}

func mixedEnumTypeCount(values []any) int {
	seen := map[string]bool{}
	for _, v := range values {
		seen[jsonTypeName(v)] = true
	}
	return len(seen)
}

func (v *compatVisitor) stringifyEnum(node *Schema, path string) *Schema {
	original := node.Enum
	seen := map[string]bool{}
	var stringified []any
	for _, val := range original {
		s := enumValueAsString(val)
		if !seen[s] {
			seen[s] = true
			stringified = append(stringified, s)
		}
	}
	v.st.codec.Add(Transform{Kind: KindEnumStringify, Path: path, OriginalValues: original})
	v.st.diagnose(ProviderCompatDiagnostic{Kind: "MixedEnumTypes", Path: path, Target: string(v.st.cfg.Target), Hint: "enum values of different JSON types stringified"})
	node.Enum = stringified
	node.Type = SchemaType{"string"}
	return node
}

func enumValueAsString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := encodeCompact(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func enumTypeNames(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = jsonTypeName(v)
	}
	return out
}

func isUnconstrainedNonRoot(node *Schema, isRoot bool) bool {
	if isRoot {
		return false
	}
	return !hasValidatingKeyword(node) && len(node.Type) == 0 &&
		isEmptyPropertySet(node.Properties) && node.Items == nil && len(node.PrefixItems) == 0 &&
		len(node.AllOf) == 0 && len(node.AnyOf) == 0 && len(node.OneOf) == 0 && node.Not == nil &&
		node.Const == nil
}

func (v *compatVisitor) convertTypeArray(node *Schema, path string) *Schema {
	types := append([]string{}, node.Type...)
	sort.Strings(types)
	var branches []*Schema
	for _, t := range types {
		branch := &Schema{Type: SchemaType{t}}
		switch t {
		case "object":
			if isEmptyPropertySet(node.Properties) {
				continue
			}
			branch.Properties = node.Properties
			branch.Required = node.Required
			branch.AdditionalProperties = node.AdditionalProperties
		case "array":
			if node.Items == nil && len(node.PrefixItems) == 0 {
				continue
			}
			branch.Items = node.Items
			branch.PrefixItems = node.PrefixItems
			branch.MinItems = node.MinItems
			branch.MaxItems = node.MaxItems
		}
		branches = append(branches, branch)
	}
	v.st.diagnose(ProviderCompatDiagnostic{Kind: "TypeArrayConverted", Path: path, Target: string(v.st.cfg.Target), Hint: "type array converted to anyOf"})
	return &Schema{AnyOf: branches, Title: node.Title, Description: node.Description}
}

func (v *compatVisitor) reconcileItemsPrefix(node *Schema, path string) *Schema {
	typeSet := map[string]bool{}
	collect := func(s *Schema) {
		if s != nil {
			for _, t := range s.Type {
				typeSet[t] = true
			}
		}
	}
	collect(node.Items)
	for _, it := range node.PrefixItems {
		collect(it)
	}
	var branches []*Schema
	names := make([]string, 0, len(typeSet))
	for t := range typeSet {
		names = append(names, t)
	}
	sort.Strings(names)
	for _, t := range names {
		branches = append(branches, &Schema{Type: SchemaType{t}})
	}
	node.Items = &Schema{AnyOf: branches}
	node.PrefixItems = nil
	return node
}

func (v *compatVisitor) stripBareRequiredBranches(node *Schema, branches []*Schema, path string) []*Schema {
	var out []*Schema
	var notes []string
	for _, br := range branches {
		if br != nil && isBareRequiredBranch(br) {
			v.st.diagnose(ProviderCompatDiagnostic{Kind: "BareRequiredStripped", Path: path, Target: string(v.st.cfg.Target), Hint: "branch requiring only a field presence cannot be expressed"})
			notes = append(notes, "at least one of: "+strings.Join(br.Required, ", "))
			continue
		}
		out = append(out, br)
	}
	if len(notes) > 0 {
		note := strings.Join(notes, "; ")
		if node.Description != nil && *node.Description != "" {
			combined := *node.Description + " (" + note + ")"
			node.Description = &combined
		} else {
			node.Description = &note
		}
	}
	return out
}

func isBareRequiredBranch(s *Schema) bool {
	return len(s.Required) > 0 && len(s.Type) == 0 && isEmptyPropertySet(s.Properties) &&
		s.AdditionalProperties == nil && len(s.AllOf) == 0 && len(s.AnyOf) == 0 && len(s.OneOf) == 0
}

// renderStructuralDescription produces a compact TypeScript-like summary of node's shape, capped
// at depth 10 and 30 object fields, for the description of an opaque string replacement.
func renderStructuralDescription(node *Schema, depth, fieldBudget int) string {
	if node == nil {
		return "unknown"
	}
	if node.Boolean != nil {
		if *node.Boolean {
			return "any"
		}
		return "never"
	}
	if depth >= 10 {
		return "..."
	}
	switch {
	case len(node.AnyOf) > 0:
		return "One of: " + joinStructural(node.AnyOf, depth, fieldBudget)
	case len(node.OneOf) > 0:
		return "One of: " + joinStructural(node.OneOf, depth, fieldBudget)
	case node.IsObjectType() && node.Properties != nil:
		var b strings.Builder
		b.WriteByte('{')
		keys := make([]string, 0, len(*node.Properties))
		for k := range *node.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > fieldBudget {
			keys = keys[:fieldBudget]
		}
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(renderStructuralDescription((*node.Properties)[k], depth+1, fieldBudget))
		}
		b.WriteByte('}')
		return b.String()
	case node.IsArrayType():
		return "[" + renderStructuralDescription(node.Items, depth+1, fieldBudget) + "]"
	case len(node.Type) > 0:
		return strings.Join(node.Type, "|")
	default:
		return "any"
	}
}

func joinStructural(list []*Schema, depth, fieldBudget int) string {
	parts := make([]string, len(list))
	for i, s := range list {
		parts[i] = renderStructuralDescription(s, depth+1, fieldBudget)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
