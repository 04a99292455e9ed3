package schemaforge

import (
	"regexp"
	"strconv"
)

// This file implements component G: the rehydrator. It applies a Codec in reverse against LLM
// output, using the DataWalker navigation scheme of §4.G.1 to translate a schema-space codec path
// into the corresponding position in the data tree, then dispatches the inverse action for each
// transform kind per §4.G.2.
//
// Grounded on the teacher's result.go EvaluationResult tree (an accumulate-as-you-walk warnings
// model) and ref.go's segment-driven navigation style (findSchemaInSegment), adapted here to walk
// data instead of schema.

// WarningKind identifies the category of an advisory rehydration warning.
type WarningKind string

const (
	WarningCoercion        WarningKind = "coercion"
	WarningConstraintFixed WarningKind = "constraint_enforced"
	WarningConstraintBad   WarningKind = "constraint_violated"
	WarningUnevaluable     WarningKind = "unevaluable"
	WarningMalformed       WarningKind = "malformed_transform"
	WarningStripped        WarningKind = "stripped"
)

// RehydrationWarning is one advisory note produced while reversing a codec. Coercion warnings
// always precede constraint warnings for the same path, per §8's testable ordering property.
type RehydrationWarning struct {
	Kind    WarningKind `json:"kind"`
	Path    string      `json:"path"`
	Message string      `json:"message"`
}

// Rehydrate applies codec in reverse to llmOutput (already decoded into Go values: map[string]any,
// []any, or a scalar), reconstructing a value shaped like original.
func Rehydrate(llmOutput any, codec *Codec, original *Schema) (any, []RehydrationWarning, error) {
	if err := codec.CheckVersion(); err != nil {
		return nil, nil, err
	}

	regexCache := compileRegexCache(codec)

	data := llmOutput
	for i := len(codec.Transforms) - 1; i >= 0; i-- {
		t := codec.Transforms[i]
		var err error
		data, err = applyInverse(data, t)
		if err != nil {
			return nil, nil, err
		}
	}

	var warnings []RehydrationWarning
	data, coercionWarnings := coerceTypes(data, original, "#")
	warnings = append(warnings, coercionWarnings...)

	for _, d := range codec.Dropped {
		w := applyConstraint(data, original, d, regexCache)
		warnings = append(warnings, w...)
	}

	return data, warnings, nil
}

func compileRegexCache(codec *Codec) map[string]*regexp.Regexp {
	cache := map[string]*regexp.Regexp{}
	for _, d := range codec.Dropped {
		if d.Keyword == "pattern" {
			if pat, ok := d.Original.(string); ok {
				if re, err := regexp.Compile(pat); err == nil {
					cache[pat] = re
				}
			}
		}
	}
	return cache
}

// --- §4.G.1 DataWalker: navigate a schema-space codec path into the data tree ---

// dataSite is one (container, key) leaf that navigateData returns when it walks data along a schema
// path — more than one when the path crosses an `items` segment (which fans out across every array
// element).
type dataSite struct {
	value any
	// parent/key allow in-place mutation when the site lives inside a map or slice. parent is nil
	// for the root site.
	parent any
	key    any // string for map key, int for slice index, nil for root
}

func navigateData(data any, segments []string) []dataSite {
	return navigateRec(data, nil, nil, segments)
}

func navigateRec(cur any, parent any, key any, segments []string) []dataSite {
	if len(segments) == 0 {
		return []dataSite{{value: cur, parent: parent, key: key}}
	}
	seg := segments[0]
	rest := segments[1:]

	switch {
	case SkipSingleKeywords[seg]:
		return navigateRec(cur, parent, key, rest)

	case SkipPairKeywords[seg]:
		if seg == "patternProperties" {
			obj, ok := cur.(map[string]any)
			if !ok || len(rest) == 0 {
				return nil
			}
			pattern := rest[0]
			re, err := regexp.Compile(pattern)
			var out []dataSite
			for k, v := range obj {
				if err == nil && !re.MatchString(k) {
					continue
				}
				out = append(out, navigateRec(v, obj, k, rest[1:])...)
			}
			return out
		}
		if len(rest) == 0 {
			return navigateRec(cur, parent, key, nil)
		}
		return navigateRec(cur, parent, key, rest[1:])

	case seg == "items":
		arr, ok := cur.([]any)
		if !ok {
			return nil
		}
		var out []dataSite
		for i, v := range arr {
			out = append(out, navigateRec(v, arr, i, rest)...)
		}
		return out

	case seg == "properties":
		if len(rest) == 0 {
			return nil
		}
		key := rest[0]
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, present := obj[key]
		if !present {
			return nil
		}
		return navigateRec(v, obj, key, rest[1:])

	default:
		if n, err := strconv.Atoi(seg); err == nil {
			arr, ok := cur.([]any)
			if !ok || n < 0 || n >= len(arr) {
				return nil
			}
			return navigateRec(arr[n], arr, n, rest)
		}
		// Unknown segment: skipped silently (forward compatibility).
		return navigateRec(cur, parent, key, rest)
	}
}

func (s dataSite) replace(newValue any) {
	switch p := s.parent.(type) {
	case map[string]any:
		k := s.key.(string)
		if newValue == nil {
			delete(p, k)
		} else {
			p[k] = newValue
		}
	case []any:
		idx := s.key.(int)
		if idx >= 0 && idx < len(p) {
			p[idx] = newValue
		}
	}
}

// --- §4.G.2 inverse actions per transform ---

func applyInverse(data any, t Transform) (any, error) {
	segments := SplitPath(t.Path)
	sites := navigateData(data, segments)

	for _, site := range sites {
		// replace mutates the site in place, except for the root site (parent == nil), which has
		// no container to mutate — there data must be reassigned directly.
		replace := func(newVal any) {
			if site.parent == nil {
				data = newVal
			} else {
				site.replace(newVal)
			}
		}

		switch t.Kind {
		case KindMapToArray:
			newVal, ok := inverseMapToArray(site.value, t)
			if ok {
				replace(newVal)
			}

		case KindJSONStringParse, KindRecursiveInflate:
			s, ok := site.value.(string)
			if !ok {
				continue
			}
			parsed, err := decodeAny([]byte(s))
			if err != nil {
				preview := s
				if len(preview) > 80 {
					preview = preview[:80] + "..."
				}
				return nil, &RehydrationError{Pointer: t.Path, Message: "invalid JSON in opaque string", Preview: preview, Err: err}
			}
			replace(parsed)

		case KindExtractAdditional:
			obj, ok := site.value.(map[string]any)
			if !ok {
				continue
			}
			if extras, ok := obj[t.WrapperKey]; ok {
				if extraObj, ok := extras.(map[string]any); ok {
					for k, v := range extraObj {
						obj[k] = v
					}
				} else if extraArr, ok := extras.([]any); ok {
					if asMap, ok2 := inverseMapToArray(extraArr, Transform{KeyProperty: "key", ValueProperty: "value"}); ok2 {
						if m, ok3 := asMap.(map[string]any); ok3 {
							for k, v := range m {
								obj[k] = v
							}
						}
					}
				}
				delete(obj, t.WrapperKey)
			}

		case KindNullableOptional:
			// navigateRec's properties case yields the property's container and key; a null at a
			// property that was not originally required is deleted from that container here.
			if site.value == nil && !t.WasRequired {
				replace(nil)
			}

		case KindRootObjectWrapper:
			obj, ok := site.value.(map[string]any)
			if !ok {
				return nil, &RehydrationError{Pointer: t.Path, Message: "expected wrapped root object"}
			}
			inner, ok := obj[t.RootKey]
			if !ok {
				return nil, &RehydrationError{Pointer: t.Path, Message: "missing wrapper key " + t.RootKey}
			}
			data = inner

		case KindEnumStringify:
			s, ok := site.value.(string)
			if !ok {
				continue
			}
			for _, candidate := range t.OriginalValues {
				if cs, ok := candidate.(string); ok {
					if cs == s {
						replace(candidate)
						break
					}
					continue
				}
				b, err := encodeCompact(candidate)
				if err == nil && string(b) == s {
					replace(candidate)
					break
				}
			}

		case KindDiscriminatorAnyOf:
			// informational only.
		}
	}

	return data, nil
}

func inverseMapToArray(v any, t Transform) (any, bool) {
	arr, ok := v.([]any)
	if !ok {
		return v, false
	}
	keyField := t.KeyProperty
	if keyField == "" {
		keyField = "key"
	}
	valueField := t.ValueProperty
	if valueField == "" {
		valueField = "value"
	}
	out := map[string]any{}
	for _, entry := range arr {
		m, ok := entry.(map[string]any)
		if !ok {
			return v, false
		}
		keyVal, ok := m[keyField].(string)
		if !ok {
			return v, false
		}
		val, ok := m[valueField]
		if !ok {
			return v, false
		}
		out[keyVal] = val
	}
	return out, true
}

func decodeAny(b []byte) (any, error) {
	var v any
	if err := defaultJSONDecode(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// --- Step 5: type coercion ---

func coerceTypes(data any, schema *Schema, path string) (any, []RehydrationWarning) {
	if schema == nil || schema.Boolean != nil {
		return data, nil
	}

	var warnings []RehydrationWarning

	if obj, ok := data.(map[string]any); ok && schema.Properties != nil {
		for k, v := range obj {
			if propSchema, ok := (*schema.Properties)[k]; ok {
				coerced, w := coerceTypes(v, propSchema, BuildPath(path, "properties", k))
				obj[k] = coerced
				warnings = append(warnings, w...)
			}
		}
		return obj, warnings
	}

	if arr, ok := data.([]any); ok {
		var itemSchema *Schema
		if schema.Items != nil {
			itemSchema = schema.Items
		}
		for i, v := range arr {
			if itemSchema != nil {
				coerced, w := coerceTypes(v, itemSchema, BuildPath(path, "items", itoa(i)))
				arr[i] = coerced
				warnings = append(warnings, w...)
			}
		}
		return arr, warnings
	}

	if len(schema.Type) != 1 {
		return data, warnings
	}
	wanted := schema.Type[0]
	coerced, changed := coercePrimitive(data, wanted)
	if changed {
		warnings = append(warnings, RehydrationWarning{Kind: WarningCoercion, Path: path, Message: "coerced value to " + wanted})
	}
	return coerced, warnings
}

func coercePrimitive(v any, wanted string) (any, bool) {
	switch wanted {
	case "integer", "number":
		switch x := v.(type) {
		case float64:
			return x, false
		case string:
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return f, true
			}
		}
	case "string":
		switch x := v.(type) {
		case string:
			return x, false
		case float64:
			return strconv.FormatFloat(x, 'g', -1, 64), true
		case bool:
			return strconv.FormatBool(x), true
		}
	case "boolean":
		switch x := v.(type) {
		case bool:
			return x, false
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b, true
			}
		}
	}
	return v, false
}

// --- Steps 6/7: constraint enforcement and validation ---

func applyConstraint(data any, schema *Schema, d DroppedConstraint, regexCache map[string]*regexp.Regexp) []RehydrationWarning {
	segments := SplitPath(d.Path)
	sites := navigateData(data, segments)
	var warnings []RehydrationWarning

	for _, site := range sites {
		switch d.Keyword {
		case "maximum":
			if bound, ok := asFloat(d.Original); ok {
				if n, ok := asFloat(site.value); ok && n > bound {
					site.replace(clampNumeric(site.value, bound))
					warnings = append(warnings, RehydrationWarning{Kind: WarningConstraintFixed, Path: d.Path, Message: "clamped to maximum"})
				}
			}
		case "minimum":
			if bound, ok := asFloat(d.Original); ok {
				if n, ok := asFloat(site.value); ok && n < bound {
					site.replace(clampNumeric(site.value, bound))
					warnings = append(warnings, RehydrationWarning{Kind: WarningConstraintFixed, Path: d.Path, Message: "clamped to minimum"})
				}
			}
		case "exclusiveMaximum":
			if bound, ok := asFloat(d.Original); ok {
				if n, ok := asFloat(site.value); ok && n >= bound {
					site.replace(clampNumeric(site.value, bound-epsilonFor(site.value)))
					warnings = append(warnings, RehydrationWarning{Kind: WarningConstraintFixed, Path: d.Path, Message: "clamped below exclusive maximum"})
				}
			}
		case "exclusiveMinimum":
			if bound, ok := asFloat(d.Original); ok {
				if n, ok := asFloat(site.value); ok && n <= bound {
					site.replace(clampNumeric(site.value, bound+epsilonFor(site.value)))
					warnings = append(warnings, RehydrationWarning{Kind: WarningConstraintFixed, Path: d.Path, Message: "clamped above exclusive minimum"})
				}
			}
		case "maxLength":
			if bound, ok := asFloat(d.Original); ok {
				if s, ok := site.value.(string); ok {
					runes := []rune(s)
					if len(runes) > int(bound) {
						site.replace(string(runes[:int(bound)]))
						warnings = append(warnings, RehydrationWarning{Kind: WarningConstraintFixed, Path: d.Path, Message: "truncated to maxLength"})
					}
				}
			}
		case "maxItems":
			if bound, ok := asFloat(d.Original); ok {
				if arr, ok := site.value.([]any); ok && len(arr) > int(bound) {
					site.replace(arr[:int(bound)])
					warnings = append(warnings, RehydrationWarning{Kind: WarningConstraintFixed, Path: d.Path, Message: "truncated to maxItems"})
				}
			}
		case "pattern":
			pat, ok := d.Original.(string)
			if !ok {
				warnings = append(warnings, RehydrationWarning{Kind: WarningUnevaluable, Path: d.Path, Message: "pattern value not a string"})
				continue
			}
			re, ok := regexCache[pat]
			if !ok {
				var err error
				re, err = regexp.Compile(pat)
				if err != nil {
					warnings = append(warnings, RehydrationWarning{Kind: WarningUnevaluable, Path: d.Path, Message: "invalid regex"})
					continue
				}
			}
			if s, ok := site.value.(string); ok && !re.MatchString(s) {
				warnings = append(warnings, RehydrationWarning{Kind: WarningConstraintBad, Path: d.Path, Message: "value does not match pattern"})
			}
		case "minLength":
			if bound, ok := asFloat(d.Original); ok {
				if s, ok := site.value.(string); ok && len([]rune(s)) < int(bound) {
					warnings = append(warnings, RehydrationWarning{Kind: WarningConstraintBad, Path: d.Path, Message: "value shorter than minLength"})
				}
			}
		case "minItems":
			if bound, ok := asFloat(d.Original); ok {
				if arr, ok := site.value.([]any); ok && len(arr) < int(bound) {
					warnings = append(warnings, RehydrationWarning{Kind: WarningConstraintBad, Path: d.Path, Message: "array shorter than minItems"})
				}
			}
		case "if/then/else", "if", "then", "else":
			warnings = append(warnings, RehydrationWarning{Kind: WarningUnevaluable, Path: d.Path, Message: "if/then/else not evaluated"})
		}
	}

	return warnings
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func clampNumeric(original any, bound float64) any {
	if _, isInt := original.(int); isInt {
		return int(bound)
	}
	return bound
}

func epsilonFor(v any) float64 {
	switch v.(type) {
	case int, int64:
		return 1
	default:
		return 1e-9
	}
}
