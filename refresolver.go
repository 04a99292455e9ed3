package schemaforge

import (
	"net/url"
	"strings"
)

// This file implements component B: the reference resolver. It builds an $anchor/$id map for a
// document in a single walk and resolves any $ref string (absolute URI, relative URI, same-
// document pointer, or #anchor) against a lexical base URI into either an in-document JSON
// Pointer or Unresolvable.
//
// Network resolution of external $ref targets is out of scope (§1 Non-goals): a ref whose absolute
// base URI does not match any $id seen in this document (or the configured default base URI) is
// always Unresolvable, and the caller decides what to do with that (P5 fails with
// UnresolvableRefError in strict mode and substitutes an opaque placeholder in permissive mode;
// the extractor records it in missing_refs).

// RefResolver resolves $ref/$dynamicRef strings against a single in-memory schema document.
type RefResolver struct {
	defaultBaseURI string
	idToPointer    map[string]string // absolute $id URI (no fragment) -> pointer
	anchorKey      map[string]string // baseURI + "#" + anchor -> pointer
	pointerBaseURI map[string]string // pointer -> lexical base URI in scope there
}

// BuildRefResolver walks root once, recording every $id/$anchor/$dynamicAnchor it finds.
func BuildRefResolver(root *Schema, defaultBaseURI string) *RefResolver {
	r := &RefResolver{
		defaultBaseURI: defaultBaseURI,
		idToPointer:    map[string]string{},
		anchorKey:      map[string]string{},
		pointerBaseURI: map[string]string{},
	}
	r.walk(root, "#", defaultBaseURI)
	return r
}

func (r *RefResolver) walk(s *Schema, pointer, baseURI string) {
	if s == nil || s.Boolean != nil {
		return
	}

	if s.ID != "" {
		resolved := joinURI(baseURI, s.ID)
		withoutFragment, _ := splitFragment(resolved)
		r.idToPointer[withoutFragment] = pointer
		baseURI = withoutFragment
	}
	r.pointerBaseURI[pointer] = baseURI

	if s.Anchor != "" {
		r.anchorKey[baseURI+"#"+s.Anchor] = pointer
	}
	if s.DynamicAnchor != "" {
		key := baseURI + "#" + s.DynamicAnchor
		if _, exists := r.anchorKey[key]; !exists {
			r.anchorKey[key] = pointer
		}
	}

	for _, child := range Children(s) {
		r.walk(child.Node, pointer+"/"+child.Segment, baseURI)
	}
}

// ResolveResult is the outcome of resolving a single $ref string.
type ResolveResult struct {
	Pointer      string
	Unresolvable bool
}

// Resolve joins ref against baseURI and looks up the result in this document. A ref that points
// outside this document (an external scheme, or a base URI this document never declared via $id)
// resolves as Unresolvable.
func (r *RefResolver) Resolve(ref, baseURI string) ResolveResult {
	if baseURI == "" {
		baseURI = r.defaultBaseURI
	}

	if ref == "#" {
		return ResolveResult{Pointer: "#"}
	}
	if strings.HasPrefix(ref, "#") {
		fragment := ref[1:]
		return r.resolveFragment(fragment, baseURI)
	}

	absolute := joinURI(baseURI, ref)
	withoutFragment, fragment := splitFragment(absolute)

	if withoutFragment != "" {
		if _, known := r.idToPointer[withoutFragment]; known {
			if fragment == "" {
				return ResolveResult{Pointer: r.idToPointer[withoutFragment]}
			}
			return r.resolveFragmentAt(fragment, withoutFragment)
		}
		if withoutFragment == r.defaultBaseURI || withoutFragment == trimTrailingSlash(r.defaultBaseURI) {
			if fragment == "" {
				return ResolveResult{Pointer: "#"}
			}
			return r.resolveFragmentAt(fragment, withoutFragment)
		}
		return ResolveResult{Unresolvable: true}
	}

	return r.resolveFragment(fragment, baseURI)
}

func (r *RefResolver) resolveFragment(fragment, baseURI string) ResolveResult {
	return r.resolveFragmentAt(fragment, baseURI)
}

func (r *RefResolver) resolveFragmentAt(fragment, baseURI string) ResolveResult {
	if fragment == "" {
		return ResolveResult{Pointer: "#"}
	}
	if strings.HasPrefix(fragment, "/") {
		return ResolveResult{Pointer: "#" + fragment}
	}
	if pointer, ok := r.anchorKey[baseURI+"#"+fragment]; ok {
		return ResolveResult{Pointer: pointer}
	}
	// Fall back to any anchor with this name regardless of scope (covers refs written without a
	// fully-qualified base, the common case for single-document schemas with no explicit $id).
	for key, pointer := range r.anchorKey {
		if strings.HasSuffix(key, "#"+fragment) {
			return ResolveResult{Pointer: pointer}
		}
	}
	return ResolveResult{Unresolvable: true}
}

// ParentBaseURIForPointer returns the lexical base URI in scope at ptr, replaying $id joins along
// the path from the root. Required by the extractor to preserve ref semantics after moving
// subtrees out from under their enclosing $id.
func (r *RefResolver) ParentBaseURIForPointer(ptr string) string {
	if uri, ok := r.pointerBaseURI[ptr]; ok {
		return uri
	}
	return r.defaultBaseURI
}

// ResolveSchemaPointer navigates root by the RFC 6901 pointer p, following the JSON Schema keyword
// taxonomy (properties/$defs/items/... ) rather than generic map/array indexing, since Schema is a
// typed struct tree rather than a generic value.
func ResolveSchemaPointer(root *Schema, p string) (*Schema, bool) {
	segments := SplitPath(p)
	cur := root
	for i := 0; i < len(segments); i++ {
		if cur == nil {
			return nil, false
		}
		kw := segments[i]
		var next *Schema
		switch kw {
		case "$defs", "definitions":
			i++
			if i >= len(segments) {
				return nil, false
			}
			next = cur.Defs[segments[i]]
		case "properties":
			i++
			if i >= len(segments) || cur.Properties == nil {
				return nil, false
			}
			next = (*cur.Properties)[segments[i]]
		case "patternProperties":
			i++
			if i >= len(segments) || cur.PatternProperties == nil {
				return nil, false
			}
			next = (*cur.PatternProperties)[segments[i]]
		case "dependentSchemas":
			i++
			if i >= len(segments) {
				return nil, false
			}
			next = cur.DependentSchemas[segments[i]]
		case "prefixItems":
			i++
			if i >= len(segments) {
				return nil, false
			}
			idx, ok := parseArrayIndex(segments[i])
			if !ok || idx < 0 || idx >= len(cur.PrefixItems) {
				return nil, false
			}
			next = cur.PrefixItems[idx]
		case "allOf":
			i++
			if i >= len(segments) {
				return nil, false
			}
			idx, ok := parseArrayIndex(segments[i])
			if !ok || idx < 0 || idx >= len(cur.AllOf) {
				return nil, false
			}
			next = cur.AllOf[idx]
		case "anyOf":
			i++
			if i >= len(segments) {
				return nil, false
			}
			idx, ok := parseArrayIndex(segments[i])
			if !ok || idx < 0 || idx >= len(cur.AnyOf) {
				return nil, false
			}
			next = cur.AnyOf[idx]
		case "oneOf":
			i++
			if i >= len(segments) {
				return nil, false
			}
			idx, ok := parseArrayIndex(segments[i])
			if !ok || idx < 0 || idx >= len(cur.OneOf) {
				return nil, false
			}
			next = cur.OneOf[idx]
		case "items":
			next = cur.Items
		case "additionalProperties":
			next = cur.AdditionalProperties
		case "propertyNames":
			next = cur.PropertyNames
		case "contains":
			next = cur.Contains
		case "not":
			next = cur.Not
		case "if":
			next = cur.If
		case "then":
			next = cur.Then
		case "else":
			next = cur.Else
		case "unevaluatedProperties":
			next = cur.UnevaluatedProperties
		case "unevaluatedItems":
			next = cur.UnevaluatedItems
		case "contentSchema":
			next = cur.ContentSchema
		default:
			return nil, false
		}
		cur = next
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// --- URI helpers ---

func joinURI(base, ref string) string {
	if isAbsoluteURI(ref) {
		return ref
	}
	if base == "" {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Scheme == "" {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func isAbsoluteURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}

func splitFragment(s string) (base, fragment string) {
	parts := strings.SplitN(s, "#", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return s, ""
}

func trimTrailingSlash(s string) string {
	return strings.TrimSuffix(s, "/")
}
