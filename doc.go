// Package schemaforge compiles arbitrary JSON Schema (drafts 4 through 2020-12, including OpenAPI
// dialects) into the restricted dialect a given LLM structured-output provider accepts, while
// emitting a codec that reconstructs instances of the original schema's shape from whatever the
// provider actually returns.
package schemaforge
