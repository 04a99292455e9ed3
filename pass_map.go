package schemaforge

// P3 - Map pattern detection, §4.E P3. An object schema with no fixed properties and a single
// value-schema governing every key (typed additionalProperties, or exactly one patternProperties
// entry, whatever its pattern; the pattern is not checked for being catch-all) denotes a map. LLM providers cannot emit objects with unbounded key
// sets, so it is rewritten to an array of {key, value} records and a MapToArray transform records
// how to invert that at rehydration time.
func passMapDetection(st *passState, root *Schema) (*Schema, error) {
	return Fold(root, "#", func(node *Schema, path string) (*Schema, WalkAction) {
		if node == nil || node.Boolean != nil {
			return node, Continue
		}
		if !isEmptyPropertySet(node.Properties) {
			return node, Continue
		}

		var valueSchema *Schema
		switch {
		case node.AdditionalProperties != nil && !node.AdditionalProperties.IsBooleanTrue() && !node.AdditionalProperties.IsBooleanFalse():
			valueSchema = node.AdditionalProperties
		case node.PatternProperties != nil && len(*node.PatternProperties) == 1:
			for _, v := range *node.PatternProperties {
				valueSchema = v
			}
		default:
			return node, Continue
		}
		if valueSchema == nil {
			return node, Continue
		}
		if len(node.Type) > 0 && !node.HasType("object") {
			return node, Continue
		}

		properties := SchemaMap{
			"key":   &Schema{Type: SchemaType{"string"}},
			"value": valueSchema,
		}
		rewritten := &Schema{
			Type: SchemaType{"array"},
			Items: &Schema{
				Type:                 SchemaType{"object"},
				Properties:           &properties,
				Required:             []string{"key", "value"},
				AdditionalProperties: NewBooleanSchema(false),
			},
			Title:       node.Title,
			Description: node.Description,
		}

		st.codec.Add(Transform{
			Kind:          KindMapToArray,
			Path:          path,
			KeyProperty:   "key",
			ValueProperty: "value",
		})

		return rewritten, Continue
	}), nil
}

func isEmptyPropertySet(m *SchemaMap) bool {
	return m == nil || len(*m) == 0
}
