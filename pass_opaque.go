package schemaforge

// P4 - Opaque stringification, §4.E P4. Schemas an LLM cannot structurally produce are rewritten
// to {type: string, description: "...JSON-encoded..."} so the provider emits a JSON-encoded string
// instead, with a JsonStringParse transform recorded to parse it back on rehydration.
func passOpaqueStringify(st *passState, root *Schema) (*Schema, error) {
	return Fold(root, "#", func(node *Schema, path string) (*Schema, WalkAction) {
		if node == nil || node.Boolean != nil {
			return node, Continue
		}
		if !isOpaqueCandidate(node) {
			return node, Continue
		}
		return opaqueStringifyNode(st, node, path), Replace
	}), nil
}

func isOpaqueCandidate(node *Schema) bool {
	if hasValidatingKeyword(node) {
		return false
	}

	isExplicitAnyObject := node.HasType("object") &&
		isEmptyPropertySet(node.Properties) &&
		(node.PatternProperties == nil || len(*node.PatternProperties) == 0) &&
		len(node.AllOf) == 0 && len(node.AnyOf) == 0 && len(node.OneOf) == 0 &&
		(node.AdditionalProperties == nil || node.AdditionalProperties.IsBooleanTrue() || isEmptySchema(node.AdditionalProperties))

	isUntypedMetadataOnly := len(node.Type) == 0 &&
		len(node.AllOf) == 0 && len(node.AnyOf) == 0 && len(node.OneOf) == 0 &&
		node.Not == nil && node.Ref == "" &&
		isEmptyPropertySet(node.Properties) &&
		(node.PatternProperties == nil || len(*node.PatternProperties) == 0) &&
		node.AdditionalProperties == nil && node.Items == nil && len(node.PrefixItems) == 0

	return isExplicitAnyObject || isUntypedMetadataOnly
}

func hasValidatingKeyword(node *Schema) bool {
	if node.Enum != nil || node.Const != nil {
		return true
	}
	if node.MultipleOf != nil || node.Maximum != nil || node.ExclusiveMaximum != nil ||
		node.Minimum != nil || node.ExclusiveMinimum != nil {
		return true
	}
	if node.MaxLength != nil || node.MinLength != nil || node.Pattern != nil {
		return true
	}
	if node.MaxItems != nil || node.MinItems != nil || node.UniqueItems != nil ||
		node.MaxContains != nil || node.MinContains != nil || node.Contains != nil {
		return true
	}
	if node.MaxProperties != nil || node.MinProperties != nil || len(node.Required) > 0 ||
		node.PropertyNames != nil || len(node.DependentRequired) > 0 {
		return true
	}
	return false
}

func isEmptySchema(s *Schema) bool {
	if s == nil {
		return false
	}
	if s.IsBooleanTrue() {
		return false
	}
	blank := &Schema{}
	return s.Boolean == nil && schemaLooksBlank(s, blank)
}

func schemaLooksBlank(s, blank *Schema) bool {
	return len(Children(s)) == 0 && s.Type == nil && s.Enum == nil && s.Const == nil &&
		s.Title == nil && s.Description == nil
}

func opaqueStringifyNode(st *passState, node *Schema, path string) *Schema {
	st.codec.Add(Transform{Kind: KindJSONStringParse, Path: path})

	desc := "JSON-encoded value"
	if node.Description != nil && *node.Description != "" {
		desc = *node.Description + " (JSON-encoded)"
	} else if node.Title != nil && *node.Title != "" {
		desc = *node.Title + " (JSON-encoded)"
	}

	out := &Schema{Type: SchemaType{"string"}, Description: &desc}

	if node.Default != nil {
		out.Default = stringifyIfComplex(node.Default)
	}
	if node.Examples != nil {
		examples := make([]any, len(node.Examples))
		for i, ex := range node.Examples {
			examples[i] = stringifyIfComplex(ex)
		}
		out.Examples = examples
	}
	return out
}

func stringifyIfComplex(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := encodeCompact(v)
		if err != nil {
			return v
		}
		return string(b)
	default:
		return v
	}
}
