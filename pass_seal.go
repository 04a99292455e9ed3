package schemaforge

import "sort"

// P6 - Strict object sealing, §4.E P6. Every typed object schema with properties gets
// additionalProperties: false, every property promoted to required, and originally-optional
// properties wrapped in anyOf[original, {type: null}] with a NullableOptional transform recorded
// so rehydration can drop the null back to absence. Idempotent: an already-sealed node (detected
// by additionalProperties already false and every property already required) is left alone.
func passStrictSeal(st *passState, root *Schema) (*Schema, error) {
	return Fold(root, "#", func(node *Schema, path string) (*Schema, WalkAction) {
		if node == nil || node.Boolean != nil || !node.IsObjectType() || isEmptyPropertySet(node.Properties) {
			return node, Continue
		}
		sealObject(st, node, path)
		return node, Continue
	}), nil
}

func sealObject(st *passState, node *Schema, path string) {
	requiredSet := map[string]bool{}
	for _, r := range node.Required {
		requiredSet[r] = true
	}

	props := *node.Properties
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}

	allRequired := true
	for _, k := range keys {
		if !requiredSet[k] {
			allRequired = false
			break
		}
	}
	alreadySealed := node.AdditionalProperties.IsBooleanFalse() && allRequired
	if alreadySealed {
		return
	}

	if node.AdditionalProperties != nil && !node.AdditionalProperties.IsBooleanTrue() && !node.AdditionalProperties.IsBooleanFalse() {
		st.pendingAdditional[path] = node.AdditionalProperties
	}

	for _, k := range keys {
		if requiredSet[k] {
			continue
		}
		propPath := BuildPath(path, "properties", k)
		original := props[k]
		if isNullableVariant(original) {
			requiredSet[k] = true
			continue
		}
		props[k] = &Schema{AnyOf: []*Schema{original, {Type: SchemaType{"null"}}}}
		st.codec.Add(Transform{Kind: KindNullableOptional, Path: propPath, WasRequired: false})
		requiredSet[k] = true
	}

	newRequired := make([]string, 0, len(requiredSet))
	for k := range requiredSet {
		newRequired = append(newRequired, k)
	}
	sort.Strings(newRequired)
	node.Required = newRequired
	node.AdditionalProperties = NewBooleanSchema(false)
}

// isNullableVariant reports whether s is already an anyOf[X, {type: null}]-shaped wrapper, so
// re-running P6 on an already-sealed schema does not double-wrap.
func isNullableVariant(s *Schema) bool {
	if s == nil || len(s.AnyOf) != 2 {
		return false
	}
	for _, branch := range s.AnyOf {
		if branch != nil && branch.Boolean == nil && len(branch.Type) == 1 && branch.Type[0] == "null" {
			return true
		}
	}
	return false
}
