package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/snap-o/cli/internal/adb"
	"github.com/snap-o/cli/internal/devices"
	"github.com/snap-o/cli/internal/util"
)

const (
	// defaultRecordSeconds is used when record_screen gets no duration.
	defaultRecordSeconds = 10

	// maxRecordSeconds matches the device-side screenrecord limit.
	maxRecordSeconds = 180
)

// --- list_devices ---

// DeviceInfo describes one connected device.
type DeviceInfo struct {
	Serial         string `json:"serial"`
	Name           string `json:"name"`
	Model          string `json:"model,omitempty"`
	Manufacturer   string `json:"manufacturer,omitempty"`
	AndroidVersion string `json:"android_version,omitempty"`
	AVDName        string `json:"avd_name,omitempty"`
	Emulator       bool   `json:"emulator"`
}

// ListDevicesInput defines the input parameters for the list_devices tool.
type ListDevicesInput struct{}

// ListDevicesOutput defines the output for the list_devices tool.
type ListDevicesOutput struct {
	Success bool         `json:"success"`
	Devices []DeviceInfo `json:"devices"`
	Error   string       `json:"error,omitempty"`
}

// handleListDevices handles the list_devices tool call.
func (s *Server) handleListDevices(ctx context.Context, req *mcp.CallToolRequest, input ListDevicesInput) (*mcp.CallToolResult, ListDevicesOutput, error) {
	list, err := devices.List(ctx, s.client)
	if err != nil {
		return nil, ListDevicesOutput{Success: false, Error: err.Error()}, nil
	}

	infos := make([]DeviceInfo, len(list))
	for i, d := range list {
		infos[i] = DeviceInfo{
			Serial:         d.Serial,
			Name:           d.DisplayName(),
			Model:          d.Model,
			Manufacturer:   d.Manufacturer,
			AndroidVersion: d.AndroidVersion,
			AVDName:        d.AVDName,
			Emulator:       d.IsEmulator(),
		}
	}

	return nil, ListDevicesOutput{Success: true, Devices: infos}, nil
}

// --- run_shell_command ---

// RunShellCommandInput defines the input parameters for the run_shell_command tool.
type RunShellCommandInput struct {
	Serial  string `json:"serial" jsonschema:"description=Device serial (from list_devices)"`
	Command string `json:"command" jsonschema:"description=Shell command to run on the device"`
}

// RunShellCommandOutput defines the output for the run_shell_command tool.
type RunShellCommandOutput struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleRunShellCommand handles the run_shell_command tool call.
func (s *Server) handleRunShellCommand(ctx context.Context, req *mcp.CallToolRequest, input RunShellCommandInput) (*mcp.CallToolResult, RunShellCommandOutput, error) {
	if input.Serial == "" {
		return nil, RunShellCommandOutput{Success: false, Error: "serial is required"}, nil
	}
	if input.Command == "" {
		return nil, RunShellCommandOutput{Success: false, Error: "command is required"}, nil
	}

	out, err := s.client.Shell(ctx, input.Serial, input.Command)
	if err != nil {
		return nil, RunShellCommandOutput{Success: false, Error: err.Error()}, nil
	}

	return nil, RunShellCommandOutput{Success: true, Output: out}, nil
}

// --- take_screenshot ---

// TakeScreenshotInput defines the input parameters for the take_screenshot tool.
type TakeScreenshotInput struct {
	Serial string `json:"serial" jsonschema:"description=Device serial (from list_devices)"`
}

// TakeScreenshotOutput defines the output for the take_screenshot tool.
type TakeScreenshotOutput struct {
	Success   bool   `json:"success"`
	SizeBytes int    `json:"size_bytes,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleTakeScreenshot handles the take_screenshot tool call.
func (s *Server) handleTakeScreenshot(ctx context.Context, req *mcp.CallToolRequest, input TakeScreenshotInput) (*mcp.CallToolResult, TakeScreenshotOutput, error) {
	if input.Serial == "" {
		return nil, TakeScreenshotOutput{Success: false, Error: "serial is required"}, nil
	}

	png, err := s.client.Screenshot(ctx, input.Serial)
	if err != nil {
		return nil, TakeScreenshotOutput{Success: false, Error: err.Error()}, nil
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.ImageContent{Data: png, MIMEType: "image/png"},
		},
	}
	return result, TakeScreenshotOutput{Success: true, SizeBytes: len(png)}, nil
}

// --- record_screen ---

// RecordScreenInput defines the input parameters for the record_screen tool.
type RecordScreenInput struct {
	Serial          string `json:"serial" jsonschema:"description=Device serial (from list_devices)"`
	DurationSeconds int    `json:"duration_seconds,omitempty" jsonschema:"description=Recording length in seconds (default 10, max 180)"`
	BitRate         int    `json:"bit_rate,omitempty" jsonschema:"description=Video bit rate in bits per second (default 8000000)"`
	Size            string `json:"size,omitempty" jsonschema:"description=Video size as WIDTHxHEIGHT (default: display size)"`
	OutputPath      string `json:"output_path,omitempty" jsonschema:"description=Local file path for the MP4 (default: generated name in the working directory)"`
}

// RecordScreenOutput defines the output for the record_screen tool.
type RecordScreenOutput struct {
	Success         bool   `json:"success"`
	Path            string `json:"path,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	Error           string `json:"error,omitempty"`
}

// handleRecordScreen handles the record_screen tool call.
func (s *Server) handleRecordScreen(ctx context.Context, req *mcp.CallToolRequest, input RecordScreenInput) (*mcp.CallToolResult, RecordScreenOutput, error) {
	if input.Serial == "" {
		return nil, RecordScreenOutput{Success: false, Error: "serial is required"}, nil
	}

	seconds := input.DurationSeconds
	if seconds == 0 {
		seconds = defaultRecordSeconds
	}
	if seconds < 1 || seconds > maxRecordSeconds {
		return nil, RecordScreenOutput{
			Success: false,
			Error:   fmt.Sprintf("duration_seconds must be between 1 and %d", maxRecordSeconds),
		}, nil
	}

	path := input.OutputPath
	if path == "" {
		path = util.CaptureFilename("recording", input.Serial, time.Now(), "mp4")
	}

	duration := time.Duration(seconds) * time.Second
	session, err := s.client.StartRecording(ctx, input.Serial, adb.RecordingOptions{
		BitRate:   input.BitRate,
		TimeLimit: duration,
		Size:      input.Size,
	})
	if err != nil {
		return nil, RecordScreenOutput{Success: false, Error: err.Error()}, nil
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
		// Stop anyway so the recorder and its temp file are cleaned up.
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = session.Stop(stopCtx, path)
		return nil, RecordScreenOutput{Success: false, Error: ctx.Err().Error()}, nil
	}

	if err := session.Stop(ctx, path); err != nil {
		return nil, RecordScreenOutput{Success: false, Error: err.Error()}, nil
	}

	return nil, RecordScreenOutput{Success: true, Path: path, DurationSeconds: seconds}, nil
}

// --- forward_port ---

// ForwardPortInput defines the input parameters for the forward_port tool.
type ForwardPortInput struct {
	Serial     string `json:"serial" jsonschema:"description=Device serial (from list_devices)"`
	SocketName string `json:"socket_name" jsonschema:"description=Abstract Unix socket name inside the device (localabstract)"`
}

// ForwardPortOutput defines the output for the forward_port tool.
type ForwardPortOutput struct {
	Success bool   `json:"success"`
	Port    int    `json:"port,omitempty"`
	Address string `json:"address,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleForwardPort handles the forward_port tool call.
func (s *Server) handleForwardPort(ctx context.Context, req *mcp.CallToolRequest, input ForwardPortInput) (*mcp.CallToolResult, ForwardPortOutput, error) {
	if input.Serial == "" {
		return nil, ForwardPortOutput{Success: false, Error: "serial is required"}, nil
	}
	if input.SocketName == "" {
		return nil, ForwardPortOutput{Success: false, Error: "socket_name is required"}, nil
	}

	fwd, err := s.client.Forward(ctx, input.Serial, input.SocketName)
	if err != nil {
		return nil, ForwardPortOutput{Success: false, Error: err.Error()}, nil
	}
	s.rememberForward(fwd)

	return nil, ForwardPortOutput{Success: true, Port: fwd.LocalPort, Address: fwd.Addr()}, nil
}

// --- remove_forward ---

// RemoveForwardInput defines the input parameters for the remove_forward tool.
type RemoveForwardInput struct {
	Serial string `json:"serial" jsonschema:"description=Device serial the forward belongs to"`
	Port   int    `json:"port" jsonschema:"description=Local port returned by forward_port"`
}

// RemoveForwardOutput defines the output for the remove_forward tool.
type RemoveForwardOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// handleRemoveForward handles the remove_forward tool call.
func (s *Server) handleRemoveForward(ctx context.Context, req *mcp.CallToolRequest, input RemoveForwardInput) (*mcp.CallToolResult, RemoveForwardOutput, error) {
	if input.Serial == "" {
		return nil, RemoveForwardOutput{Success: false, Error: "serial is required"}, nil
	}
	if input.Port == 0 {
		return nil, RemoveForwardOutput{Success: false, Error: "port is required"}, nil
	}

	fwd := s.takeForward(input.Port)
	if fwd == nil {
		// Not one of ours; remove it on the server anyway.
		fwd = &adb.Forward{Serial: input.Serial, LocalPort: input.Port}
	}

	if err := s.client.RemoveForward(ctx, fwd); err != nil {
		return nil, RemoveForwardOutput{Success: false, Error: err.Error()}, nil
	}

	return nil, RemoveForwardOutput{Success: true}, nil
}

// --- pull_file ---

// PullFileInput defines the input parameters for the pull_file tool.
type PullFileInput struct {
	Serial     string `json:"serial" jsonschema:"description=Device serial (from list_devices)"`
	RemotePath string `json:"remote_path" jsonschema:"description=File path on the device"`
	LocalPath  string `json:"local_path,omitempty" jsonschema:"description=Local destination (default: remote file name in the working directory)"`
}

// PullFileOutput defines the output for the pull_file tool.
type PullFileOutput struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handlePullFile handles the pull_file tool call.
func (s *Server) handlePullFile(ctx context.Context, req *mcp.CallToolRequest, input PullFileInput) (*mcp.CallToolResult, PullFileOutput, error) {
	if input.Serial == "" {
		return nil, PullFileOutput{Success: false, Error: "serial is required"}, nil
	}
	if input.RemotePath == "" {
		return nil, PullFileOutput{Success: false, Error: "remote_path is required"}, nil
	}

	path := input.LocalPath
	if path == "" {
		path = filepath.Base(input.RemotePath)
	}

	if err := s.client.Pull(ctx, input.Serial, input.RemotePath, path); err != nil {
		return nil, PullFileOutput{Success: false, Error: err.Error()}, nil
	}

	return nil, PullFileOutput{Success: true, Path: path}, nil
}

// --- get_properties ---

// GetPropertiesInput defines the input parameters for the get_properties tool.
type GetPropertiesInput struct {
	Serial string `json:"serial" jsonschema:"description=Device serial (from list_devices)"`
	Prefix string `json:"prefix,omitempty" jsonschema:"description=Only return properties whose key starts with this prefix (e.g. ro.product.)"`
}

// GetPropertiesOutput defines the output for the get_properties tool.
type GetPropertiesOutput struct {
	Success    bool              `json:"success"`
	Properties map[string]string `json:"properties,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// handleGetProperties handles the get_properties tool call.
func (s *Server) handleGetProperties(ctx context.Context, req *mcp.CallToolRequest, input GetPropertiesInput) (*mcp.CallToolResult, GetPropertiesOutput, error) {
	if input.Serial == "" {
		return nil, GetPropertiesOutput{Success: false, Error: "serial is required"}, nil
	}

	props, err := s.client.Properties(ctx, input.Serial, input.Prefix)
	if err != nil {
		return nil, GetPropertiesOutput{Success: false, Error: err.Error()}, nil
	}

	return nil, GetPropertiesOutput{Success: true, Properties: props}, nil
}
