package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaptinlin/schemaforge"
)

func newListComponentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-components <schema.json>",
		Short: "List the extractable named sub-schemas in a document",
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
			for _, p := range schemaforge.ListComponents(root) {
				fmt.Println(p)
			}
			return nil
		},
	}
}
