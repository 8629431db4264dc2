// Package schema provides CLI schema generation.
//
// This package generates machine-readable schema documentation for the
// CLI, enabling LLMs and other tools to understand how to use the
// Snap-O CLI.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CLISchema represents the complete CLI schema.
type CLISchema struct {
	Name        string        `json:"name"`
	Version     string        `json:"version"`
	Description string        `json:"description"`
	Commands    []CommandInfo `json:"commands"`
	GlobalFlags []FlagInfo    `json:"global_flags"`
	Workflows   []Workflow    `json:"workflows"`
}

// CommandInfo represents a CLI command.
type CommandInfo struct {
	Path        string        `json:"path"`
	Short       string        `json:"short"`
	Long        string        `json:"long,omitempty"`
	Usage       string        `json:"usage"`
	Examples    []string      `json:"examples,omitempty"`
	Flags       []FlagInfo    `json:"flags,omitempty"`
	Subcommands []CommandInfo `json:"subcommands,omitempty"`
}

// FlagInfo represents a CLI flag.
type FlagInfo struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description"`
}

// Workflow represents a common CLI workflow.
type Workflow struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Steps       []string `json:"steps"`
}

// GetCLISchema generates the CLI schema from a root Cobra command.
//
// Parameters:
//   - rootCmd: The root Cobra command
//   - version: CLI version string
//
// Returns:
//   - *CLISchema: The generated CLI schema
func GetCLISchema(rootCmd *cobra.Command, version string) *CLISchema {
	schema := &CLISchema{
		Name:        "snapo",
		Version:     version,
		Description: "Instant screenshots, recordings, and live mirrors from your Android devices.",
		Commands:    extractCommands(rootCmd, ""),
		GlobalFlags: extractFlags(rootCmd.PersistentFlags()),
		Workflows:   getCommonWorkflows(),
	}
	return schema
}

// extractCommands recursively extracts command information.
func extractCommands(cmd *cobra.Command, parentPath string) []CommandInfo {
	var commands []CommandInfo

	for _, subCmd := range cmd.Commands() {
		// Skip help and completion commands
		if subCmd.Name() == "help" || subCmd.Name() == "completion" {
			continue
		}

		path := subCmd.Name()
		if parentPath != "" {
			path = parentPath + " " + subCmd.Name()
		}

		info := CommandInfo{
			Path:     path,
			Short:    subCmd.Short,
			Long:     subCmd.Long,
			Usage:    subCmd.UseLine(),
			Examples: extractExamples(subCmd.Example),
			Flags:    extractFlags(subCmd.LocalFlags()),
		}

		// Recursively get subcommands
		if subCmd.HasSubCommands() {
			info.Subcommands = extractCommands(subCmd, path)
		}

		commands = append(commands, info)
	}

	return commands
}

// extractFlags extracts flag information from a FlagSet.
func extractFlags(flags *pflag.FlagSet) []FlagInfo {
	var flagInfos []FlagInfo

	flags.VisitAll(func(f *pflag.Flag) {
		// Skip hidden flags
		if f.Hidden {
			return
		}

		info := FlagInfo{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
			Description: f.Usage,
		}
		flagInfos = append(flagInfos, info)
	})

	return flagInfos
}

// extractExamples parses the Example field into individual examples.
func extractExamples(example string) []string {
	if example == "" {
		return nil
	}

	var examples []string
	lines := strings.Split(example, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			examples = append(examples, line)
		}
	}
	return examples
}

// getCommonWorkflows returns common CLI workflows.
func getCommonWorkflows() []Workflow {
	return []Workflow{
		{
			Name:        "Check your setup (do this first!)",
			Description: "Verify adb is found and a device is connected",
			Steps: []string{
				"snapo doctor",
				"# If adb is not found:",
				"export SNAPO_ADB_PATH=/path/to/adb",
			},
		},
		{
			Name:        "First capture",
			Description: "Find a device and take a screenshot",
			Steps: []string{
				"snapo devices",
				"# Use the SERIAL column, not the name:",
				"snapo screenshot emulator-5554",
			},
		},
		{
			Name:        "Record a clip",
			Description: "Record the screen to an MP4 file",
			Steps: []string{
				"snapo record emulator-5554 --time-limit 30",
				"# Or stop early with Ctrl-C:",
				"snapo record emulator-5554 -o demo.mp4",
			},
		},
		{
			Name:        "Mirror the screen live",
			Description: "Stream the screen to a player or to WebSocket viewers",
			Steps: []string{
				"snapo mirror emulator-5554 | ffplay -f h264 -i -",
				"# Or serve it over WebSocket:",
				"snapo mirror emulator-5554 --listen",
			},
		},
		{
			Name:        "Wait for a device",
			Description: "Watch the device list update live as devices come and go",
			Steps: []string{
				"snapo devices --watch",
			},
		},
		{
			Name:        "Expose an app socket",
			Description: "Forward an app's abstract socket to a local TCP port",
			Steps: []string{
				"snapo forward emulator-5554 myapp-debug --copy",
				"# The local address is printed and copied to the clipboard",
			},
		},
		{
			Name:        "Pull files off the device",
			Description: "Copy a file from device storage",
			Steps: []string{
				"snapo pull emulator-5554 /sdcard/Download/report.pdf",
			},
		},
		{
			Name:        "Scripting with JSON",
			Description: "Machine-readable output for scripts and CI",
			Steps: []string{
				"snapo devices --json",
				"snapo screenshot emulator-5554 --json",
				"snapo getprop emulator-5554 ro.build. --json",
			},
		},
		{
			Name:        "MCP server for AI agents",
			Description: "Start MCP server for AI integration",
			Steps: []string{
				"snapo mcp serve",
			},
		},
	}
}

// ToJSON converts the schema to JSON.
//
// Parameters:
//   - schema: The CLI schema to convert
//   - indent: Whether to indent the output
//
// Returns:
//   - string: JSON representation
//   - error: Any encoding error
func ToJSON(schema *CLISchema, indent bool) (string, error) {
	var data []byte
	var err error

	if indent {
		data, err = json.MarshalIndent(schema, "", "  ")
	} else {
		data, err = json.Marshal(schema)
	}

	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return string(data), nil
}

// ToMarkdown converts the schema to Markdown documentation.
//
// Parameters:
//   - schema: The CLI schema to convert
//
// Returns:
//   - string: Markdown documentation
func ToMarkdown(schema *CLISchema) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s CLI Reference\n\n", schema.Name))
	sb.WriteString(fmt.Sprintf("**Version:** %s\n\n", schema.Version))
	sb.WriteString(fmt.Sprintf("%s\n\n", schema.Description))

	// Global flags
	sb.WriteString("## Global Flags\n\n")
	sb.WriteString("| Flag | Type | Default | Description |\n")
	sb.WriteString("|------|------|---------|-------------|\n")
	for _, f := range schema.GlobalFlags {
		name := "--" + f.Name
		if f.Shorthand != "" {
			name = "-" + f.Shorthand + ", " + name
		}
		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s |\n", name, f.Type, f.Default, f.Description))
	}
	sb.WriteString("\n")

	// Commands
	sb.WriteString("## Commands\n\n")
	for _, cmd := range schema.Commands {
		writeCommandMarkdown(&sb, cmd, 3)
	}

	// Workflows
	sb.WriteString("## Common Workflows\n\n")
	for _, w := range schema.Workflows {
		sb.WriteString(fmt.Sprintf("### %s\n\n", w.Name))
		if w.Description != "" {
			sb.WriteString(fmt.Sprintf("%s\n\n", w.Description))
		}
		sb.WriteString("```bash\n")
		for _, step := range w.Steps {
			sb.WriteString(step + "\n")
		}
		sb.WriteString("```\n\n")
	}

	return sb.String()
}

// writeCommandMarkdown writes a command to markdown.
func writeCommandMarkdown(sb *strings.Builder, cmd CommandInfo, level int) {
	heading := strings.Repeat("#", level)
	sb.WriteString(fmt.Sprintf("%s `%s`\n\n", heading, cmd.Path))
	sb.WriteString(fmt.Sprintf("%s\n\n", cmd.Short))

	if cmd.Long != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", cmd.Long))
	}

	sb.WriteString(fmt.Sprintf("**Usage:** `%s`\n\n", cmd.Usage))

	if len(cmd.Flags) > 0 {
		sb.WriteString("**Flags:**\n\n")
		sb.WriteString("| Flag | Type | Default | Description |\n")
		sb.WriteString("|------|------|---------|-------------|\n")
		for _, f := range cmd.Flags {
			name := "--" + f.Name
			if f.Shorthand != "" {
				name = "-" + f.Shorthand + ", " + name
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s |\n", name, f.Type, f.Default, f.Description))
		}
		sb.WriteString("\n")
	}

	if len(cmd.Examples) > 0 {
		sb.WriteString("**Examples:**\n\n```bash\n")
		for _, ex := range cmd.Examples {
			sb.WriteString(ex + "\n")
		}
		sb.WriteString("```\n\n")
	}

	// Subcommands
	for _, sub := range cmd.Subcommands {
		writeCommandMarkdown(sb, sub, level+1)
	}
}

// ToLLMFormat converts the schema to an LLM-optimized single-file format.
//
// Parameters:
//   - schema: The CLI schema to convert
//
// Returns:
//   - string: LLM-optimized documentation
func ToLLMFormat(schema *CLISchema) string {
	var sb strings.Builder

	sb.WriteString("# Snap-O CLI - Complete Reference for LLMs\n\n")
	sb.WriteString("This document contains everything needed to capture screenshots, recordings, and live streams from Android devices with the Snap-O CLI.\n\n")

	// CRITICAL: Prerequisites section - check these FIRST
	sb.WriteString("## Prerequisites (Check First!)\n\n")
	sb.WriteString("Before running any device commands, you MUST have:\n\n")
	sb.WriteString("1. **adb available**: install Android platform-tools, or set `SNAPO_ADB_PATH` to the binary\n")
	sb.WriteString("2. **A device**: a phone with USB debugging enabled, or a running emulator\n")
	sb.WriteString("3. **Verify**: `snapo doctor` (all checks should pass)\n\n")
	sb.WriteString("The adb server itself needs no setup: commands start it on demand.\n\n")

	// Key Concepts section - critical for understanding
	sb.WriteString("## Key Concepts (Important!)\n\n")

	sb.WriteString("### Serials vs Display Names\n\n")
	sb.WriteString("- Every device command takes a **serial** as its first argument\n")
	sb.WriteString("- Serials look like `emulator-5554` or a hardware ID like `R5CT10ABCDE`\n")
	sb.WriteString("- Get serials from the SERIAL column of `snapo devices`\n")
	sb.WriteString("- The NAME column is a display label (e.g., \"Pixel 8 API 34\") and is NOT accepted as an argument\n\n")

	sb.WriteString("### Output Files\n\n")
	sb.WriteString("- Captures default to timestamped files in the current directory\n")
	sb.WriteString("- Use `-o <path>` to choose the destination, and `-o -` to write a screenshot to stdout\n")
	sb.WriteString("- `snapo mirror` emits raw H.264 with no container; pipe it to a player or record with `snapo record` instead\n\n")

	// Common Mistakes section - prevent errors
	sb.WriteString("## Common Mistakes (Don't Do This!)\n\n")
	sb.WriteString("| Wrong | Correct | Why |\n")
	sb.WriteString("|-------|---------|-----|\n")
	sb.WriteString("| `snapo screenshot` | `snapo screenshot emulator-5554` | Every device command needs a serial |\n")
	sb.WriteString("| `snapo screenshot \"Pixel 8\"` | `snapo screenshot emulator-5554` | Use the SERIAL column, not the name |\n")
	sb.WriteString("| `snapo mirror <serial>` in a terminal | pipe it, or use `-o` / `--listen` | The stream is raw H.264, not text |\n")
	sb.WriteString("| `snapo record <serial> --time-limit 600` | at most `--time-limit 180` | Recordings cap at 180 seconds |\n")
	sb.WriteString("| `snapo pull <serial> ~/file.txt` | use the device path, e.g. `/sdcard/file.txt` | The remote path lives on the device |\n\n")

	// Quick reference
	sb.WriteString("## Quick Reference\n\n")
	sb.WriteString("```\n")
	sb.WriteString("snapo doctor                        # Check setup (do this first!)\n")
	sb.WriteString("snapo devices                       # List connected devices\n")
	sb.WriteString("snapo devices --watch               # Watch the list update live\n")
	sb.WriteString("snapo screenshot <serial>           # Capture the screen as PNG\n")
	sb.WriteString("snapo record <serial>               # Record the screen to MP4\n")
	sb.WriteString("snapo mirror <serial> --listen      # Serve a live stream over WebSocket\n")
	sb.WriteString("snapo shell <serial> <command>      # Run a shell command\n")
	sb.WriteString("snapo forward <serial> <socket>     # Forward an app socket to a local port\n")
	sb.WriteString("snapo pull <serial> <remote>        # Pull a file off the device\n")
	sb.WriteString("snapo getprop <serial> [prefix]     # Read system properties\n")
	sb.WriteString("snapo schema                        # Get this schema\n")
	sb.WriteString("```\n\n")

	// JSON output note
	sb.WriteString("## Scripting\n\n")
	sb.WriteString("Every command accepts `--json` for machine-readable output, and `--quiet` suppresses decorative output. ")
	sb.WriteString("Long-running commands (record, mirror, forward, devices --watch) stop cleanly on Ctrl-C.\n\n")

	// CLI Commands section
	sb.WriteString("## CLI Commands\n\n")
	for _, cmd := range schema.Commands {
		writeLLMCommand(&sb, cmd)
	}

	return sb.String()
}

// writeLLMCommand writes a command in LLM-friendly format.
func writeLLMCommand(sb *strings.Builder, cmd CommandInfo) {
	sb.WriteString(fmt.Sprintf("### %s\n\n", cmd.Path))
	sb.WriteString(fmt.Sprintf("%s\n\n", cmd.Short))

	if cmd.Long != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", cmd.Long))
	}

	if len(cmd.Flags) > 0 {
		sb.WriteString("Flags:\n")
		for _, f := range cmd.Flags {
			name := "--" + f.Name
			if f.Shorthand != "" {
				name = "-" + f.Shorthand + "/" + name
			}
			sb.WriteString(fmt.Sprintf("  %s (%s): %s\n", name, f.Type, f.Description))
		}
		sb.WriteString("\n")
	}

	if len(cmd.Examples) > 0 {
		sb.WriteString("Examples:\n")
		for _, ex := range cmd.Examples {
			sb.WriteString(fmt.Sprintf("  %s\n", ex))
		}
		sb.WriteString("\n")
	}

	// Subcommands
	for _, sub := range cmd.Subcommands {
		writeLLMCommand(sb, sub)
	}
}
