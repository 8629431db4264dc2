// Package mcp provides the MCP (Model Context Protocol) server implementation.
//
// This package implements an MCP server that exposes Snap-O device
// operations as tools that can be called by AI agents via the MCP
// protocol.
package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/snap-o/cli/internal/adb"
	"github.com/snap-o/cli/internal/config"
)

// Server wraps the MCP server with Snap-O device functionality.
type Server struct {
	mcpServer *mcp.Server
	client    *adb.Client
	version   string

	// forwards tracks forwards created through forward_port so
	// remove_forward can undo them by port alone.
	fwdMu    sync.Mutex
	forwards map[int]*adb.Forward
}

// NewServer creates a new Snap-O MCP server.
//
// Parameters:
//   - version: The CLI version string
//
// Returns:
//   - *Server: A new server instance
//   - error: Any error that occurred during initialization
func NewServer(version string) (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	s := &Server{
		client:   adb.NewClient(config.FindAdb(cfg)),
		version:  version,
		forwards: make(map[int]*adb.Forward),
	}

	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{
			Name:    "snapo",
			Version: version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// Run starts the MCP server over stdio.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: Any error that occurred during execution
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// boolPtr returns a pointer to a bool value. Used for ToolAnnotations fields.
func boolPtr(b bool) *bool { return &b }

// registerTools registers all Snap-O device tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_devices",
		Description: "List connected Android devices with model, manufacturer, Android version, and emulator AVD name.",
		Annotations: &mcp.ToolAnnotations{
			Title:        "List Devices",
			ReadOnlyHint: true,
		},
	}, s.handleListDevices)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_shell_command",
		Description: "Run a shell command on a device and return its output. The device shell runs as the shell user.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Run Shell Command",
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleRunShellCommand)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "take_screenshot",
		Description: "Capture the current device screen as a PNG image. Returns the image natively for rendering.",
		Annotations: &mcp.ToolAnnotations{
			Title:        "Take Screenshot",
			ReadOnlyHint: true,
		},
	}, s.handleTakeScreenshot)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_screen",
		Description: "Record the device screen for a fixed duration and save the MP4 locally. Blocks until the recording finishes.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Record Screen",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleRecordScreen)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "forward_port",
		Description: "Forward a local TCP port to an abstract Unix socket inside the device. Returns the local address to connect to.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Forward Port",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleForwardPort)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "remove_forward",
		Description: "Remove a port forward previously created with forward_port.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Remove Forward",
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleRemoveForward)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "pull_file",
		Description: "Copy a file from the device to the local filesystem.",
		Annotations: &mcp.ToolAnnotations{
			Title:        "Pull File",
			ReadOnlyHint: true,
		},
	}, s.handlePullFile)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_properties",
		Description: "Read system properties from a device, optionally filtered by key prefix (e.g. ro.product.).",
		Annotations: &mcp.ToolAnnotations{
			Title:        "Get Properties",
			ReadOnlyHint: true,
		},
	}, s.handleGetProperties)
}

// rememberForward records a forward created by forward_port.
func (s *Server) rememberForward(fwd *adb.Forward) {
	s.fwdMu.Lock()
	defer s.fwdMu.Unlock()
	s.forwards[fwd.LocalPort] = fwd
}

// takeForward removes and returns the tracked forward for a port, or
// nil when the port was not created through forward_port.
func (s *Server) takeForward(port int) *adb.Forward {
	s.fwdMu.Lock()
	defer s.fwdMu.Unlock()
	fwd := s.forwards[port]
	delete(s.forwards, port)
	return fwd
}
