package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kaptinlin/schemaforge"
)

// readSchemaFile loads path and, if it looks like YAML by extension, decodes it into a generic
// tree and re-marshals it to JSON so the rest of the pipeline only ever sees JSON bytes. This is
// the CLI-level generalization of the teacher's application/yaml media type handler
// (compiler.go's MediaTypes["application/yaml"]).
func readSchemaFile(path string) ([]byte, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	if !isYAMLPath(path) {
		return data, nil
	}
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return schemaforge.GoJSONEncode(tree)
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return readStdin()
	}
	return os.ReadFile(path)
}

func readStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}

// writeOutput writes data to path, or stdout when path is empty or "-".
func writeOutput(path string, data []byte) error {
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
