package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaptinlin/schemaforge"
)

func newConvertCmd() *cobra.Command {
	var (
		target            string
		mode              string
		polymorphism      string
		maxDepth          int
		recursionLimit    int
		rootWrapperKey    string
		defaultBaseURI    string
		stripDescriptions bool
		outPath           string
		codecPath         string
	)

	cmd := &cobra.Command{
		Use:   "convert <schema.json>",
		Short: "Compile a JSON Schema into a provider's structured-output dialect",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := readSchemaFile(args[0])
			if err != nil {
				return err
			}

			opts := schemaforge.NewConvertOptions().
				SetTarget(parseTarget(target)).
				SetPolymorphism(parsePolymorphism(polymorphism)).
				SetRootWrapperKey(rootWrapperKey).
				SetDefaultBaseURI(defaultBaseURI).
				SetStripDescriptions(stripDescriptions)
			if maxDepth > 0 {
				opts.SetMaxRecursionDepth(maxDepth)
			}
			if recursionLimit > 0 {
				opts.SetRecursionLimit(recursionLimit)
			}
			if mode == "permissive" {
				opts.SetMode(schemaforge.ModePermissive)
			}

			result, err := schemaforge.Convert(context.Background(), raw, opts)
			if err != nil {
				return err
			}

			schemaOut, err := schemaforge.GoJSONEncode(result.Schema)
			if err != nil {
				return err
			}
			if err := writeOutput(outPath, schemaOut); err != nil {
				return err
			}

			if codecPath != "" {
				codecOut, err := schemaforge.GoJSONEncode(result.Codec)
				if err != nil {
					return err
				}
				if err := writeOutput(codecPath, codecOut); err != nil {
					return err
				}
			}

			for _, d := range result.Diagnostics {
				fmt.Printf("note: %s at %s: %s\n", d.Kind, d.Path, d.Hint)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&target, "target", "openai-strict", "target dialect: openai-strict|gemini|claude")
	flags.StringVar(&mode, "mode", "strict", "strict|permissive")
	flags.StringVar(&polymorphism, "polymorphism", "preserve", "preserve|flatten")
	flags.IntVar(&maxDepth, "max-depth", 0, "traversal depth guard; no pass reads it, so output is unchanged (0 = default)")
	flags.IntVar(&recursionLimit, "recursion-limit", 0, "times a self-referential $ref is inlined before the cycle is broken (0 = default)")
	flags.StringVar(&rootWrapperKey, "root-wrapper-key", "result", "property name used when a non-object root must be wrapped")
	flags.StringVar(&defaultBaseURI, "base-uri", "", "default base URI for resolving relative $ref/$id")
	flags.BoolVar(&stripDescriptions, "strip-descriptions", false, "recorded on the options; the pipeline does not read it, so title/description are kept")
	flags.StringVarP(&outPath, "output", "o", "-", "compiled schema output path")
	flags.StringVar(&codecPath, "codec", "", "codec output path (omit to skip writing a codec file)")

	return cmd
}

func parseTarget(s string) schemaforge.Target {
	switch s {
	case "gemini", "gemini-schema", "gemini_schema":
		return schemaforge.TargetGeminiSchema
	case "claude", "anthropic", "anthropic-tool", "anthropic_tool":
		return schemaforge.TargetAnthropicTool
	default:
		return schemaforge.TargetOpenAIStrict
	}
}

func parsePolymorphism(s string) schemaforge.Polymorphism {
	if s == "flatten" {
		return schemaforge.PolymorphismFlatten
	}
	return schemaforge.PolymorphismPreserve
}
