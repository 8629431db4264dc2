// Package main provides the schema command for CLI introspection.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/schema"
)

var schemaFormat string

// schemaCmd outputs CLI schema for LLM/tooling integration.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Output CLI schema for LLM/tooling integration",
	Long: `Output a machine-readable schema of all CLI commands.

This command introspects the CLI and outputs structured documentation
that LLMs and other tools can use to understand how to use the CLI.

FORMATS:
  json     - Full JSON schema with commands, flags, examples (default)
  markdown - Markdown documentation suitable for docs sites
  llm      - Single-file format optimized for LLM context windows

The schema includes:
  - All CLI commands with their flags and examples
  - Common workflows for typical use cases

EXAMPLES:
  snapo schema                    # JSON to stdout
  snapo schema --format markdown  # Markdown docs
  snapo schema --format llm       # LLM-optimized single file
  snapo schema > cli-schema.json  # Save to file`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVar(&schemaFormat, "format", "json", "Output format: json, markdown, llm")
}

// runSchema generates and outputs the CLI schema.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runSchema(cmd *cobra.Command, args []string) error {
	// Get the root command to introspect
	root := cmd.Root()

	// Generate CLI schema
	cliSchema := schema.GetCLISchema(root, version)

	switch schemaFormat {
	case "json":
		out, err := schema.ToJSON(cliSchema, true)
		if err != nil {
			return err
		}
		fmt.Println(out)

	case "markdown":
		fmt.Println(schema.ToMarkdown(cliSchema))

	case "llm":
		fmt.Println(schema.ToLLMFormat(cliSchema))

	default:
		return fmt.Errorf("unknown format '%s': must be json, markdown, or llm", schemaFormat)
	}

	return nil
}
