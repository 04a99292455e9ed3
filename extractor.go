package schemaforge

import (
	"sort"
	"strings"
)

// This file implements component F: tree-shaking a named component out of a $defs-rich document.
// Grounded on the teacher's ref.go resolution machinery (reused here via RefResolver) and
// schemamerge.go's style of building a result by walking once and assembling maps.

// ExtractOptions configures extract_component.
type ExtractOptions struct {
	MaxDepth       int
	DefaultBaseURI string
}

// ExtractResult is the return value of ExtractComponent.
type ExtractResult struct {
	Schema          *Schema
	Pointer         string
	DependencyCount int
	MissingRefs     []string
}

// ListComponents returns a sorted, deduplicated list of JSON Pointers addressing every extractable
// named sub-schema: $defs/definitions anywhere in the tree, and components/schemas only at the
// document root (to avoid false positives on a user object that happens to be named "components").
func ListComponents(root *Schema) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	var walk func(s *Schema, path string)
	walk = func(s *Schema, path string) {
		if s == nil || s.Boolean != nil {
			return
		}
		for k := range s.Defs {
			add(BuildPath(path, "$defs", k))
		}
		for _, child := range Children(s) {
			walk(child.Node, path+"/"+child.Segment)
		}
	}
	walk(root, "#")

	if root != nil && root.Boolean == nil {
		if comp, ok := root.Extra["components"]; ok {
			if compMap, ok := comp.(map[string]any); ok {
				if schemasAny, ok := compMap["schemas"]; ok {
					if schemasMap, ok := schemasAny.(map[string]any); ok {
						for k := range schemasMap {
							add(BuildPath("#", "components", "schemas", k))
						}
					}
				}
			}
		}
	}

	sort.Strings(out)
	return out
}

// ExtractComponent tree-shakes the sub-schema at pointer out of root, transitively resolving every
// $ref it reaches (with cycle breaking) and rewriting refs to point into the extracted document's
// own $defs.
func ExtractComponent(root *Schema, pointer string, opts ExtractOptions) (*ExtractResult, error) {
	target, ok := ResolveSchemaPointer(root, pointer)
	if !ok {
		return nil, &UnresolvableRefError{Pointer: pointer, Ref: pointer}
	}

	resolver := BuildRefResolver(root, opts.DefaultBaseURI)
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 50
	}

	ex := &extraction{
		root:       root,
		resolver:   resolver,
		rewriteMap: map[string]string{},
		deps:       map[string]*Schema{},
		visited:    map[string]bool{},
		maxDepth:   maxDepth,
	}

	if err := ex.discover(target, opts.DefaultBaseURI, 0); err != nil {
		return nil, err
	}

	clonedTarget := ex.rewriteRefs(target.Clone(), opts.DefaultBaseURI)

	defs := map[string]*Schema{}
	for ptr, key := range ex.rewriteMap {
		dep := ex.deps[ptr]
		if dep == nil {
			continue
		}
		defs[key] = ex.rewriteRefs(dep.Clone(), ex.resolver.ParentBaseURIForPointer(ptr))
	}
	if len(defs) > 0 {
		clonedTarget.Defs = defs
	}

	missing := append([]string{}, ex.missingRefs...)
	sort.Strings(missing)
	missing = dedupStrings(missing)

	return &ExtractResult{
		Schema:          clonedTarget,
		Pointer:         pointer,
		DependencyCount: len(defs),
		MissingRefs:     missing,
	}, nil
}

type extraction struct {
	root        *Schema
	resolver    *RefResolver
	rewriteMap  map[string]string // original pointer -> "#/$defs/<key>"
	deps        map[string]*Schema
	visited     map[string]bool
	missingRefs []string
	maxDepth    int
}

// discover walks s's subtree via DFS, recording every $ref it finds. depth counts ref hops only.
func (ex *extraction) discover(s *Schema, baseURI string, depth int) error {
	if s == nil || s.Boolean != nil {
		return nil
	}
	if s.ID != "" {
		baseURI = joinURI(baseURI, s.ID)
	}

	if s.Ref != "" {
		res := ex.resolver.Resolve(s.Ref, baseURI)
		if res.Unresolvable {
			ex.missingRefs = append(ex.missingRefs, s.Ref)
			return ex.discoverChildren(s, baseURI, depth)
		}
		if ex.visited[res.Pointer] {
			// Already-visited refs continue into siblings but don't re-recurse into the ref
			// target itself (cycle break).
			return ex.discoverChildren(s, baseURI, depth)
		}
		if depth+1 > ex.maxDepth {
			return &RecursionDepthExceededError{Pointer: res.Pointer, MaxDepth: ex.maxDepth}
		}
		ex.visited[res.Pointer] = true

		dep, ok := ResolveSchemaPointer(ex.root, res.Pointer)
		if !ok {
			ex.missingRefs = append(ex.missingRefs, s.Ref)
			return ex.discoverChildren(s, baseURI, depth)
		}
		ex.assignKey(res.Pointer, s.Ref)
		ex.deps[res.Pointer] = dep

		if err := ex.discover(dep, ex.resolver.ParentBaseURIForPointer(res.Pointer), depth+1); err != nil {
			return err
		}
		return ex.discoverChildren(s, baseURI, depth)
	}

	return ex.discoverChildren(s, baseURI, depth)
}

// discoverChildren walks s's sibling keyword slots (everything Children exposes, which for a
// ref-bearing node is whatever appears alongside $ref rather than anything reachable through it).
func (ex *extraction) discoverChildren(s *Schema, baseURI string, depth int) error {
	for _, child := range Children(s) {
		if err := ex.discover(child.Node, baseURI, depth); err != nil {
			return err
		}
	}
	return nil
}

// assignKey picks a short, collision-free key for a newly discovered dependency: the ref's last
// path segment, falling back to a sanitized full path, then a numeric suffix on collision. Kept
// numeric (not uuid-based) deliberately: extract_component's schema output must be bit-identical
// across runs for identical inputs, which a random suffix here would violate.
func (ex *extraction) assignKey(pointer, ref string) {
	if _, exists := ex.rewriteMap[pointer]; exists {
		return
	}
	base := defNameFromRef(ref)
	if base == "" || base == "value" {
		base = strings.ReplaceAll(strings.TrimPrefix(pointer, "#/"), "/", "_")
	}
	key := base
	used := map[string]bool{}
	for _, k := range ex.rewriteMap {
		used[strings.TrimPrefix(k, "#/$defs/")] = true
	}
	for i := 2; used[key]; i++ {
		key = base + "_" + itoa(i)
	}
	ex.rewriteMap[pointer] = "#/$defs/" + key
}

func (ex *extraction) rewriteRefs(s *Schema, baseURI string) *Schema {
	if s == nil || s.Boolean != nil {
		return s
	}
	return Fold(s, "#", func(node *Schema, path string) (*Schema, WalkAction) {
		if node == nil || node.Boolean != nil || node.Ref == "" {
			return node, Continue
		}
		scopedBase := baseURI
		if node.ID != "" {
			scopedBase = joinURI(baseURI, node.ID)
		}
		res := ex.resolver.Resolve(node.Ref, scopedBase)
		if res.Unresolvable {
			return node, Continue
		}
		if newPtr, ok := ex.rewriteMap[res.Pointer]; ok {
			node.Ref = newPtr
		}
		return node, Continue
	})
}

func dedupStrings(in []string) []string {
	var out []string
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// DependencyGraph is the batched variant of extraction: it builds the reference resolver and a
// pointer -> node index once, so any number of extractions from one document share them. It also
// records every node's direct $ref edges in adj, but Extract does not consult adj: each extraction
// still walks the target's subtree to discover its dependencies, as ExtractComponent does.
type DependencyGraph struct {
	root     *Schema
	resolver *RefResolver
	adj      map[string][]string // pointer -> pointers it directly $refs
	nodes    map[string]*Schema
	baseURI  map[string]string
}

// BuildDependencyGraph walks root once, recording every node's direct $ref edges.
func BuildDependencyGraph(root *Schema, defaultBaseURI string) *DependencyGraph {
	g := &DependencyGraph{
		root:     root,
		resolver: BuildRefResolver(root, defaultBaseURI),
		adj:      map[string][]string{},
		nodes:    map[string]*Schema{},
		baseURI:  map[string]string{},
	}
	g.walk(root, "#", defaultBaseURI)
	return g
}

func (g *DependencyGraph) walk(s *Schema, path, baseURI string) {
	if s == nil || s.Boolean != nil {
		return
	}
	if s.ID != "" {
		baseURI = joinURI(baseURI, s.ID)
	}
	g.nodes[path] = s
	g.baseURI[path] = baseURI

	if s.Ref != "" {
		res := g.resolver.Resolve(s.Ref, baseURI)
		if !res.Unresolvable {
			g.adj[path] = append(g.adj[path], res.Pointer)
		}
	}
	for _, child := range Children(s) {
		g.walk(child.Node, path+"/"+child.Segment, baseURI)
	}
}

// Extract looks pointer up in the prebuilt node index and discovers its dependencies by walking
// the target's subtree with the shared resolver (the adjacency list is not used), producing a
// result byte-identical to ExtractComponent(root, pointer, opts).
func (g *DependencyGraph) Extract(pointer string, opts ExtractOptions) (*ExtractResult, error) {
	target, ok := g.nodes[pointer]
	if !ok {
		target, ok = ResolveSchemaPointer(g.root, pointer)
		if !ok {
			return nil, &UnresolvableRefError{Pointer: pointer, Ref: pointer}
		}
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 50
	}

	ex := &extraction{
		root:       g.root,
		resolver:   g.resolver,
		rewriteMap: map[string]string{},
		deps:       map[string]*Schema{},
		visited:    map[string]bool{},
		maxDepth:   maxDepth,
	}
	if err := ex.discover(target, opts.DefaultBaseURI, 0); err != nil {
		return nil, err
	}

	clonedTarget := ex.rewriteRefs(target.Clone(), opts.DefaultBaseURI)
	defs := map[string]*Schema{}
	for ptr, key := range ex.rewriteMap {
		dep := ex.deps[ptr]
		if dep == nil {
			continue
		}
		defs[key] = ex.rewriteRefs(dep.Clone(), ex.resolver.ParentBaseURIForPointer(ptr))
	}
	if len(defs) > 0 {
		clonedTarget.Defs = defs
	}

	missing := append([]string{}, ex.missingRefs...)
	sort.Strings(missing)
	missing = dedupStrings(missing)

	return &ExtractResult{Schema: clonedTarget, Pointer: pointer, DependencyCount: len(defs), MissingRefs: missing}, nil
}
