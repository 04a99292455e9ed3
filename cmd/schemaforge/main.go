// Package main provides the CLI entry point for schemaforge, a tool that compiles arbitrary JSON
// Schema into the restricted dialect an LLM structured-output provider accepts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "schemaforge",
		Short:         "Compile JSON Schema for LLM structured-output providers",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		newConvertCmd(),
		newRehydrateCmd(),
		newExtractCmd(),
		newListComponentsCmd(),
		newValidateStrictCmd(),
		newManifestCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
