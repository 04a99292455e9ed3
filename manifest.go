package schemaforge

import (
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

// This file implements the ambient extraction-manifest surface described in §6: a JSON document
// produced when the extractor is used in batch (one component per generated SDK file, say), so a
// caller's build step can see what was generated without re-running extraction. Manifest I/O
// itself (reading/writing files) is explicitly out of scope (§1); this file owns the shape and
// in-memory assembly only.

// ManifestComponent describes one extracted component's place in a manifest. ID is an opaque
// identifier for build tooling to key off of; it carries no schema semantics, so unlike
// ExtractComponent's $defs key it is free to be a uuid rather than a deterministic name.
type ManifestComponent struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Pointer         string `json:"pointer"`
	SchemaPath      string `json:"schemaPath"`
	CodecPath       string `json:"codecPath"`
	OriginalPath    string `json:"originalPath"`
	DependencyCount int    `json:"dependencyCount"`
}

// Manifest is the extraction manifest wire format.
type Manifest struct {
	Version       string               `json:"version"`
	GeneratedAt   string               `json:"generatedAt"`
	SourceSchema  string               `json:"sourceSchema"`
	Target        Target               `json:"target"`
	Mode          Mode                 `json:"mode"`
	Components    []ManifestComponent  `json:"components"`
}

// NewManifest builds a manifest for sourceSchema compiled for target/mode, stamped with
// generatedAt. generatedAt is passed in rather than computed internally (this package's passes
// never call time.Now so a compile stays deterministic); callers typically pass time.Now().UTC().
func NewManifest(sourceSchema string, target Target, mode Mode, generatedAt time.Time) *Manifest {
	return &Manifest{
		Version:      "1",
		GeneratedAt:  generatedAt.UTC().Format(time.RFC3339),
		SourceSchema: sourceSchema,
		Target:       target,
		Mode:         mode,
	}
}

// AddComponent appends one extracted component's metadata to the manifest.
func (m *Manifest) AddComponent(name string, result *ExtractResult, schemaPath, codecPath, originalPath string) {
	m.Components = append(m.Components, ManifestComponent{
		ID:              uuid.NewString(),
		Name:            name,
		Pointer:         result.Pointer,
		SchemaPath:      schemaPath,
		CodecPath:       codecPath,
		OriginalPath:    originalPath,
		DependencyCount: result.DependencyCount,
	})
}

// Encode serializes the manifest with this package's default JSON engine.
func (m *Manifest) Encode() ([]byte, error) {
	return encodeIndent(m)
}

// EncodeYAML serializes the manifest as YAML, for the build tooling that keeps a generated-SDK
// manifest alongside a YAML-based project config rather than a JSON one.
func (m *Manifest) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(m)
}
