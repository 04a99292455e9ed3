package main

import (
	"github.com/spf13/cobra"

	"github.com/kaptinlin/schemaforge"
)

func newExtractCmd() *cobra.Command {
	var (
		outPath  string
		maxDepth int
		baseURI  string
	)

	cmd := &cobra.Command{
		Use:   "extract <schema.json> <pointer>",
		Short: "Tree-shake a named component out of a $defs-rich document",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := readSchemaFile(args[0])
			if err != nil {
				return err
			}
			root, err := schemaforge.ParseSchema(raw)
			if err != nil {
				return err
			}

			opts := schemaforge.ExtractOptions{MaxDepth: maxDepth, DefaultBaseURI: baseURI}
			result, err := schemaforge.ExtractComponent(root, args[1], opts)
			if err != nil {
				return err
			}

			out, err := schemaforge.GoJSONEncode(result)
			if err != nil {
				return err
			}
			return writeOutput(outPath, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outPath, "output", "o", "-", "extracted component output path")
	flags.IntVar(&maxDepth, "max-depth", 0, "dependency discovery depth guard (0 = default)")
	flags.StringVar(&baseURI, "base-uri", "", "default base URI for resolving relative $ref")

	return cmd
}
