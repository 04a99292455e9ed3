package schemaforge

import "sort"

// P0 - Normalize (§4.E P0). Expands boolean schemas sitting at property slots into empty object
// schemas (an empty Schema already means "accept all" for our typed representation, so boolean
// true becomes {} and boolean false becomes {not: {}}), strips the meta keywords $schema and
// $vocabulary, and canonicalizes OpenAPI `nullable: true` into `type: [X, "null"]`.
func passNormalize(st *passState, root *Schema) (*Schema, error) {
	out := Fold(root, "#", func(node *Schema, path string) (*Schema, WalkAction) {
		if node == nil {
			return nil, Continue
		}
		if node.Boolean != nil {
			return node, Continue
		}
		if node.Properties != nil {
			for k, v := range *node.Properties {
				if v != nil && v.Boolean != nil {
					if *v.Boolean {
						(*node.Properties)[k] = &Schema{}
					} else {
						(*node.Properties)[k] = &Schema{Not: &Schema{}}
					}
				}
			}
		}

		node.Schema = ""
		delete(node.Extra, "$vocabulary")

		if node.Nullable != nil && *node.Nullable {
			node.Nullable = nil
			node.Type = canonicalizeNullable(node.Type)
		}

		return node, Continue
	})
	return out, nil
}

// canonicalizeNullable folds OpenAPI's separate `nullable: true` flag into the type array, adding
// "null" if it isn't already present. type: "X" + nullable:true becomes type: ["X", "null"].
func canonicalizeNullable(t SchemaType) SchemaType {
	if len(t) == 0 {
		return SchemaType{"null"}
	}
	for _, x := range t {
		if x == "null" {
			return t
		}
	}
	out := make(SchemaType, 0, len(t)+1)
	out = append(out, t...)
	out = append(out, "null")
	sort.Strings(out) // deterministic output regardless of original author ordering
	return out
}
