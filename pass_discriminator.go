package schemaforge

// P2 - Discriminator collapse, §4.E P2. OpenAPI `discriminator` objects are replaced by an
// equivalent anyOf/oneOf over the existing anyOf/oneOf branches (or, if the node has no
// composition at all, left alone — a bare discriminator with nothing to discriminate between is
// not a construct this pipeline can collapse), and a DiscriminatorAnyOf entry is recorded.
func passDiscriminator(st *passState, root *Schema) (*Schema, error) {
	return Fold(root, "#", func(node *Schema, path string) (*Schema, WalkAction) {
		if node == nil || node.Boolean != nil || node.Discriminator == nil {
			return node, Continue
		}

		branches := node.AnyOf
		usedOneOf := false
		if len(branches) == 0 && len(node.OneOf) > 0 {
			branches = node.OneOf
			usedOneOf = true
		}
		if len(branches) == 0 {
			node.Discriminator = nil
			return node, Continue
		}

		if st.cfg.Polymorphism == PolymorphismFlatten {
			usedOneOf = false
		} else if st.cfg.Polymorphism == "" {
			// default any_of per §6 ConvertOptions default
			usedOneOf = false
		}

		if usedOneOf {
			node.OneOf = branches
		} else {
			node.AnyOf = branches
			node.OneOf = nil
		}

		st.codec.Add(Transform{
			Kind:                  KindDiscriminatorAnyOf,
			Path:                  path,
			DiscriminatorProperty: node.Discriminator.PropertyName,
			BranchByValue:         node.Discriminator.Mapping,
		})
		node.Discriminator = nil

		return node, Continue
	}), nil
}
