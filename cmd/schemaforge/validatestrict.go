package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaptinlin/schemaforge"
)

func newValidateStrictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-strict <schema.json>",
		Short: "Audit a compiled schema against OpenAI strict-mode restrictions",
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

			violations := schemaforge.ValidateStrictMode(root)
			for _, v := range violations {
				fmt.Printf("%s: %s (%s)\n", v.Path, v.Message, v.RuleID)
			}
			if len(violations) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
}
