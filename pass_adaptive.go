package schemaforge

// P8 - Adaptive opaque, §4.E P8. A catch-all for constructs earlier passes did not cover: an enum
// containing an object or a null value cannot be stringified element-wise the way P9's
// EnumStringify handles purely-scalar mixed enums, so the whole node is opaque-stringified instead.
func passAdaptiveOpaque(st *passState, root *Schema) (*Schema, error) {
	return Fold(root, "#", func(node *Schema, path string) (*Schema, WalkAction) {
		if node == nil || node.Boolean != nil || len(node.Enum) == 0 {
			return node, Continue
		}
		if !enumHasObjectOrNull(node.Enum) {
			return node, Continue
		}
		return opaqueStringifyNode(st, node, path), Replace
	}), nil
}

func enumHasObjectOrNull(values []any) bool {
	for _, v := range values {
		if v == nil {
			return true
		}
		if _, ok := v.(map[string]any); ok {
			return true
		}
	}
	return false
}
