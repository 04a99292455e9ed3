package schemaforge

// This file implements component H: a read-only auditor over OpenAI strict-mode restrictions,
// used both as a standalone facade entry point and by §8's test corpus invariant
// (validate_strict_mode(compile(S, openai-strict).schema) == []).

// StrictViolation is one rule violation found by ValidateStrictMode.
type StrictViolation struct {
	Path    string `json:"path"`
	RuleID  string `json:"rule_id"`
	Message string `json:"message"`
}

var strictBannedKeywords = map[string]func(*Schema) bool{
	"patternProperties":     func(s *Schema) bool { return s.PatternProperties != nil && len(*s.PatternProperties) > 0 },
	"$anchor":                func(s *Schema) bool { return s.Anchor != "" },
	"$dynamicRef":            func(s *Schema) bool { return s.DynamicRef != "" },
	"$dynamicAnchor":         func(s *Schema) bool { return s.DynamicAnchor != "" },
	"dependentSchemas":       func(s *Schema) bool { return len(s.DependentSchemas) > 0 },
	"dependentRequired":      func(s *Schema) bool { return len(s.DependentRequired) > 0 },
	"unevaluatedProperties":  func(s *Schema) bool { return s.UnevaluatedProperties != nil },
	"unevaluatedItems":       func(s *Schema) bool { return s.UnevaluatedItems != nil },
	"contains":               func(s *Schema) bool { return s.Contains != nil },
	"minContains":            func(s *Schema) bool { return s.MinContains != nil },
	"maxContains":            func(s *Schema) bool { return s.MaxContains != nil },
	"if":                     func(s *Schema) bool { return s.If != nil },
	"then":                   func(s *Schema) bool { return s.Then != nil },
	"else":                   func(s *Schema) bool { return s.Else != nil },
	"not":                    func(s *Schema) bool { return s.Not != nil },
}

const strictSemanticDepthLimit = 5

// ValidateStrictMode walks root and reports every OpenAI strict-mode violation it finds.
func ValidateStrictMode(root *Schema) []StrictViolation {
	var out []StrictViolation
	if root == nil {
		return out
	}

	if root.Boolean == nil && !root.IsObjectType() {
		out = append(out, StrictViolation{Path: "#", RuleID: "root_must_be_object", Message: "root schema must be type object"})
	}

	var walk func(s *Schema, path string, semanticDepth int, isRoot bool)
	walk = func(s *Schema, path string, semanticDepth int, isRoot bool) {
		if s == nil {
			return
		}
		if s.Boolean != nil {
			out = append(out, StrictViolation{Path: path, RuleID: "boolean_schema_forbidden", Message: "boolean schemas are not representable in strict mode"})
			return
		}

		if s.Ref != "" && !isRoot {
			out = append(out, StrictViolation{Path: path, RuleID: "ref_forbidden", Message: "$ref is forbidden; schemas must be fully inlined"})
		}

		for name, check := range strictBannedKeywords {
			if check(s) {
				out = append(out, StrictViolation{Path: path, RuleID: "banned_keyword_" + name, Message: name + " is not supported in strict mode"})
			}
		}

		if !isBareCombinator(s) && len(s.Type) == 0 && s.Enum == nil && s.Const == nil && !isEmptySchemaShape(s) {
			out = append(out, StrictViolation{Path: path, RuleID: "missing_type", Message: "schema node must declare a type"})
		}

		if s.IsObjectType() {
			if !s.AdditionalProperties.IsBooleanFalse() {
				out = append(out, StrictViolation{Path: path, RuleID: "additional_properties_required", Message: "object schema must set additionalProperties: false"})
			}
		}
		if s.IsArrayType() {
			if s.Items == nil && len(s.PrefixItems) == 0 {
				out = append(out, StrictViolation{Path: path, RuleID: "array_items_required", Message: "array schema must declare items or prefixItems"})
			}
		}

		if semanticDepth >= strictSemanticDepthLimit && !isRoot && !isPrimitiveOrNullablePrimitive(s) && len(s.Type) > 0 {
			out = append(out, StrictViolation{Path: path, RuleID: "semantic_depth_exceeded", Message: "nesting exceeds strict-mode depth limit"})
		}

		for _, br := range s.AllOf {
			walk(br, BuildPath(path, "allOf"), semanticDepth, false)
		}
		for i, br := range s.AnyOf {
			walk(br, BuildPath(path, "anyOf", itoa(i)), semanticDepth, false)
		}
		for i, br := range s.OneOf {
			walk(br, BuildPath(path, "oneOf", itoa(i)), semanticDepth, false)
		}
		if s.Properties != nil {
			for k, child := range *s.Properties {
				walk(child, BuildPath(path, "properties", k), semanticDepth+1, false)
			}
		}
		if s.Items != nil {
			walk(s.Items, BuildPath(path, "items"), semanticDepth+1, false)
		}
		for i, it := range s.PrefixItems {
			walk(it, BuildPath(path, "prefixItems", itoa(i)), semanticDepth+1, false)
		}
	}

	walk(root, "#", 0, true)
	return out
}

func isBareCombinator(s *Schema) bool {
	return len(s.AllOf) > 0 || len(s.AnyOf) > 0 || len(s.OneOf) > 0
}

func isEmptySchemaShape(s *Schema) bool {
	return len(Children(s)) == 0 && s.Type == nil && s.Enum == nil && s.Const == nil
}
