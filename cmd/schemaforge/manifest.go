package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kaptinlin/schemaforge"
)

func newManifestCmd() *cobra.Command {
	var (
		target  string
		mode    string
		outDir  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "manifest <schema.json>",
		Short: "Batch-extract every named component and record them in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := readSchemaFile(args[0])
			if err != nil {
				return err
			}
			root, err := schemaforge.ParseSchema(raw)
			if err != nil {
				return err
			}

			tgt := parseTarget(target)
			md := schemaforge.ModeStrict
			if mode == "permissive" {
				md = schemaforge.ModePermissive
			}

			manifest := schemaforge.NewManifest(args[0], tgt, md, time.Now())

			graph := schemaforge.BuildDependencyGraph(root, "")
			for _, pointer := range schemaforge.ListComponents(root) {
				name := sanitizeComponentName(pointer)
				result, err := graph.Extract(pointer, schemaforge.ExtractOptions{})
				if err != nil {
					return fmt.Errorf("extract %s: %w", pointer, err)
				}

				schemaPath := filepath.Join(outDir, name+".schema.json")
				originalOut, err := schemaforge.GoJSONEncode(result.Schema)
				if err != nil {
					return err
				}
				if err := writeOutput(schemaPath, originalOut); err != nil {
					return err
				}

				codecPath := ""
				compiled, convErr := schemaforge.Convert(context.Background(), originalOut, schemaforge.NewConvertOptions().SetTarget(tgt).SetMode(md))
				if convErr == nil {
					codecPath = filepath.Join(outDir, name+".codec.json")
					codecOut, err := schemaforge.GoJSONEncode(compiled.Codec)
					if err != nil {
						return err
					}
					if err := writeOutput(codecPath, codecOut); err != nil {
						return err
					}
					compiledPath := filepath.Join(outDir, name+".compiled.json")
					compiledOut, err := schemaforge.GoJSONEncode(compiled.Schema)
					if err != nil {
						return err
					}
					if err := writeOutput(compiledPath, compiledOut); err != nil {
						return err
					}
					schemaPath = compiledPath
				}

				manifest.AddComponent(name, result, schemaPath, codecPath, args[0])
			}

			out, err := manifest.Encode()
			if err != nil {
				return err
			}
			return writeOutput(outPath, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&target, "target", "openai-strict", "target dialect: openai-strict|gemini|claude")
	flags.StringVar(&mode, "mode", "strict", "strict|permissive")
	flags.StringVar(&outDir, "out-dir", ".", "directory to write each component's schema/codec files into")
	flags.StringVarP(&outPath, "output", "o", "-", "manifest output path")

	return cmd
}

func sanitizeComponentName(pointer string) string {
	trimmed := strings.TrimPrefix(pointer, "#/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 {
		return "component"
	}
	return parts[len(parts)-1]
}
