package schemaforge

// P7 - additionalProperties schema extraction, §4.E P7. For objects P6 just sealed that originally
// carried a typed additionalProperties schema, that schema moves into a fixed property holding an
// array of {key, value} records, since a sealed object cannot accept arbitrary extra keys anymore.
const additionalPropertiesFieldName = "additional_properties"

func passExtractAdditional(st *passState, root *Schema) (*Schema, error) {
	if len(st.pendingAdditional) == 0 {
		return root, nil
	}
	return Fold(root, "#", func(node *Schema, path string) (*Schema, WalkAction) {
		valueSchema, ok := st.pendingAdditional[path]
		if !ok || node == nil || node.Boolean != nil || node.Properties == nil {
			return node, Continue
		}

		properties := SchemaMap{
			"key":   &Schema{Type: SchemaType{"string"}},
			"value": valueSchema,
		}
		extrasArray := &Schema{
			Type: SchemaType{"array"},
			Items: &Schema{
				Type:                 SchemaType{"object"},
				Properties:           &properties,
				Required:             []string{"key", "value"},
				AdditionalProperties: NewBooleanSchema(false),
			},
		}
		nullableExtras := &Schema{AnyOf: []*Schema{extrasArray, {Type: SchemaType{"null"}}}}

		(*node.Properties)[additionalPropertiesFieldName] = nullableExtras
		node.Required = appendUnique(node.Required, additionalPropertiesFieldName)

		st.codec.Add(Transform{
			Kind:          KindExtractAdditional,
			Path:          path,
			WrapperKey:    additionalPropertiesFieldName,
			KeyProperty:   "key",
			ValueProperty: "value",
		})

		return node, Continue
	}), nil
}

func appendUnique(list []string, item string) []string {
	for _, x := range list {
		if x == item {
			return list
		}
	}
	return append(list, item)
}
