// Package main provides the MCP command for the Snap-O CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/snap-o/cli/internal/mcp"
	"github.com/snap-o/cli/internal/ui"
)

// mcpCmd is the parent command for MCP operations.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long: `MCP (Model Context Protocol) server commands.

The MCP server allows AI agents to inspect and capture from Android
devices through the Model Context Protocol, so assistants like Claude
or Cursor can take screenshots, record clips, and run shell commands
on a connected device.

Commands:
  serve  - Start the MCP server over stdio`,
}

// mcpServeCmd starts the MCP server.
var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server over stdio",
	Long: `Start the Snap-O MCP server over stdio.

This command starts an MCP server that communicates via JSON-RPC
over stdin/stdout. It's designed to be launched by AI hosts like
Cursor or Claude Desktop.

The server exposes the following tools:
  - list_devices: List connected devices with names and versions
  - run_shell_command: Run a shell command on a device
  - take_screenshot: Capture the screen as a PNG image
  - record_screen: Record the screen to an MP4 file
  - forward_port: Forward an app socket to a local TCP port
  - remove_forward: Remove a port forward
  - pull_file: Copy a file off the device
  - get_properties: Read device system properties

Example Cursor configuration:
  {
    "mcpServers": {
      "snapo": {
        "command": "snapo",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
}

// runMCPServe starts the MCP server.
func runMCPServe(cmd *cobra.Command, args []string) error {
	server, err := mcp.NewServer(version)
	if err != nil {
		ui.PrintError("Failed to create MCP server: %v", err)
		return err
	}

	// Run the server (blocks until client disconnects)
	return server.Run(cmd.Context())
}
