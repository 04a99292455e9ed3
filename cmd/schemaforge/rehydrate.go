package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaptinlin/schemaforge"
)

func newRehydrateCmd() *cobra.Command {
	var (
		codecPath  string
		schemaPath string
		locale     string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "rehydrate <llm-output.json>",
		Short: "Reverse a codec against an LLM's structured output",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			llmRaw, err := readSchemaFile(args[0])
			if err != nil {
				return err
			}
			codecRaw, err := readSchemaFile(codecPath)
			if err != nil {
				return err
			}
			schemaRaw, err := readSchemaFile(schemaPath)
			if err != nil {
				return err
			}

			var llmOutput any
			if err := schemaforge.GoJSONDecode(llmRaw, &llmOutput); err != nil {
				return err
			}
			var codec schemaforge.Codec
			if err := schemaforge.GoJSONDecode(codecRaw, &codec); err != nil {
				return err
			}
			original, err := schemaforge.ParseSchema(schemaRaw)
			if err != nil {
				return err
			}

			data, warnings, err := schemaforge.Rehydrate(llmOutput, &codec, original)
			if err != nil {
				return err
			}

			out, err := schemaforge.GoJSONEncode(data)
			if err != nil {
				return err
			}
			if err := writeOutput(outPath, out); err != nil {
				return err
			}

			for _, w := range warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", schemaforge.LocalizeWarning(w, locale))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&codecPath, "codec", "", "codec file produced by convert")
	flags.StringVar(&schemaPath, "schema", "", "original (pre-compile) schema file")
	flags.StringVar(&locale, "locale", "en", "locale for warning messages")
	flags.StringVarP(&outPath, "output", "o", "-", "rehydrated data output path")
	cmd.MarkFlagRequired("codec")
	cmd.MarkFlagRequired("schema")

	return cmd
}
