// Package snapo provides a public API for the Snap-O CLI.
//
// This package exposes the core functionality of the CLI as a Go
// library, making it easy to integrate with other tools like MCP
// servers or editor plugins. It speaks the adb host wire protocol
// directly over TCP; the adb binary is only ever spawned to restart
// a dead server.
//
// Example usage:
//
//	client, err := snapo.NewClient()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	list, err := client.Devices(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range list {
//	    fmt.Printf("%s: %s\n", d.Serial, d.DisplayName())
//	}
package snapo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/snap-o/cli/internal/adb"
	"github.com/snap-o/cli/internal/config"
	"github.com/snap-o/cli/internal/devices"
)

// Client is the main entry point for the Snap-O public API.
type Client struct {
	adb     *adb.Client
	cfg     *config.Config
	adbPath string
	addr    string // Custom server address if set

	trackerOnce sync.Once
	tracker     *devices.Tracker
}

// Option configures a Client.
type Option func(*Client) error

// WithAdbPath pins the adb binary used for server restarts, skipping
// discovery.
func WithAdbPath(path string) Option {
	return func(c *Client) error {
		c.adbPath = path
		return nil
	}
}

// WithServerAddress points the client at a non-default adb server
// address instead of localhost:5037.
func WithServerAddress(addr string) Option {
	return func(c *Client) error {
		c.addr = addr
		return nil
	}
}

// WithConfig sets the configuration directly instead of loading
// ~/.snapo/config.yaml.
func WithConfig(cfg *config.Config) Option {
	return func(c *Client) error {
		c.cfg = cfg
		return nil
	}
}

// NewClient creates a new Snap-O client.
//
// Parameters:
//   - opts: Configuration options
//
// Returns:
//   - *Client: A new client instance
//   - error: Any error that occurred during initialization
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{}

	// Apply options
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		c.cfg = cfg
	}

	// An empty path is tolerated: it only matters once a dead server
	// needs restarting, and the error at that point names the fix.
	if c.adbPath == "" {
		c.adbPath = config.FindAdb(c.cfg)
	}

	if c.addr != "" {
		c.adb = adb.NewClientWithAddress(c.adbPath, c.addr)
	} else {
		c.adb = adb.NewClient(c.adbPath)
	}
	return c, nil
}

// Devices lists the connected devices with their enriched identities.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - []devices.Device: Connected devices sorted by serial
//   - error: Any error that occurred
func (c *Client) Devices(ctx context.Context) ([]devices.Device, error) {
	return devices.List(ctx, c.adb)
}

// WatchDevices subscribes to live device-list updates. The returned
// subscription immediately replays the latest snapshot and then
// streams changes; close it to release the tracker. The underlying
// tracking connection runs only while at least one subscription is
// open.
//
// Returns:
//   - *devices.Subscription: The live subscription
func (c *Client) WatchDevices() *devices.Subscription {
	c.trackerOnce.Do(func() {
		c.tracker = devices.NewTracker(c.adb)
	})
	return c.tracker.Subscribe()
}

// Shell runs a shell command on a device and returns its output.
//
// Parameters:
//   - ctx: Context for cancellation
//   - serial: Device serial (from Devices)
//   - command: Shell command line
//
// Returns:
//   - string: Combined command output
//   - error: Any error that occurred
func (c *Client) Shell(ctx context.Context, serial, command string) (string, error) {
	return c.adb.Shell(ctx, serial, command)
}

// Exec runs a command through the exec service, which skips the pty
// and leaves binary output unmangled.
func (c *Client) Exec(ctx context.Context, serial, command string) ([]byte, error) {
	return c.adb.Exec(ctx, serial, command)
}

// Screenshot captures the device screen as PNG bytes.
//
// Parameters:
//   - ctx: Context for cancellation
//   - serial: Device serial
//
// Returns:
//   - []byte: PNG image data
//   - error: Any error that occurred
func (c *Client) Screenshot(ctx context.Context, serial string) ([]byte, error) {
	return c.adb.Screenshot(ctx, serial)
}

// Pull copies a file from the device to a local path.
//
// Parameters:
//   - ctx: Context for cancellation
//   - serial: Device serial
//   - remotePath: File path on the device
//   - localPath: Local destination path
//
// Returns:
//   - error: Any error that occurred
func (c *Client) Pull(ctx context.Context, serial, remotePath, localPath string) error {
	return c.adb.Pull(ctx, serial, remotePath, localPath)
}

// Forward maps a local TCP port to an abstract Unix socket on the
// device. The local port is allocated automatically.
//
// Parameters:
//   - ctx: Context for cancellation
//   - serial: Device serial
//   - socketName: Abstract socket name (localabstract)
//
// Returns:
//   - *adb.Forward: Handle describing the established forward
//   - error: Any error that occurred
func (c *Client) Forward(ctx context.Context, serial, socketName string) (*adb.Forward, error) {
	return c.adb.Forward(ctx, serial, socketName)
}

// RemoveForward tears down a forward created by Forward.
func (c *Client) RemoveForward(ctx context.Context, fwd *adb.Forward) error {
	return c.adb.RemoveForward(ctx, fwd)
}

// Properties fetches device properties, optionally filtered to keys
// starting with prefix.
//
// Parameters:
//   - ctx: Context for cancellation
//   - serial: Device serial
//   - prefix: Key prefix filter, empty for all properties
//
// Returns:
//   - map[string]string: Property keys and values
//   - error: Any error that occurred
func (c *Client) Properties(ctx context.Context, serial, prefix string) (map[string]string, error) {
	return c.adb.Properties(ctx, serial, prefix)
}

// DisplaySize reports the device's current display resolution.
func (c *Client) DisplaySize(ctx context.Context, serial string) (width, height int, err error) {
	return c.adb.DisplaySize(ctx, serial)
}

// DisplayDensity reports the device's current display density in dpi.
func (c *Client) DisplayDensity(ctx context.Context, serial string) (int, error) {
	return c.adb.DisplayDensity(ctx, serial)
}

// RecordOptions contains options for screen recording.
type RecordOptions struct {
	// BitRate is the video bit rate in bits per second. Zero uses the
	// configured capture default.
	BitRate int
	// TimeLimit caps the recording length. Zero uses the configured
	// capture default; the device-side maximum is three minutes.
	TimeLimit time.Duration
	// Size is the video size as WIDTHxHEIGHT. Empty records at the
	// display's native size.
	Size string
}

// StartRecording begins a screen recording on the device.
//
// The recording runs until Stop is called on the returned session or
// the time limit expires, whichever comes first.
//
// Parameters:
//   - ctx: Context for cancellation
//   - serial: Device serial
//   - opts: Recording options, nil for configured defaults
//
// Returns:
//   - *adb.RecordingSession: The recording in progress
//   - error: Any error that occurred
func (c *Client) StartRecording(ctx context.Context, serial string, opts *RecordOptions) (*adb.RecordingSession, error) {
	if opts == nil {
		opts = &RecordOptions{}
	}
	bitRate := opts.BitRate
	if bitRate == 0 {
		bitRate = c.cfg.Capture.BitRate
	}
	timeLimit := opts.TimeLimit
	if timeLimit == 0 && c.cfg.Capture.TimeLimitSeconds > 0 {
		timeLimit = time.Duration(c.cfg.Capture.TimeLimitSeconds) * time.Second
	}
	size := opts.Size
	if size == "" {
		size = c.cfg.Capture.Size
	}
	return c.adb.StartRecording(ctx, serial, adb.RecordingOptions{
		BitRate:   bitRate,
		TimeLimit: timeLimit,
		Size:      size,
	})
}

// StreamOptions contains options for live screen streaming.
type StreamOptions struct {
	// BitRate is the video bit rate in bits per second. Zero uses the
	// configured mirror default.
	BitRate int
	// Size is the video size as WIDTHxHEIGHT. Empty streams at the
	// display's native size.
	Size string
}

// StartScreenStream begins a live raw H.264 stream of the device's
// screen. Drain the returned session with ReadChunk and close it to
// stop the remote encoder.
//
// Parameters:
//   - ctx: Context for cancellation
//   - serial: Device serial
//   - opts: Stream options, nil for configured defaults
//
// Returns:
//   - *adb.ScreenStreamSession: The live stream
//   - error: Any error that occurred
func (c *Client) StartScreenStream(ctx context.Context, serial string, opts *StreamOptions) (*adb.ScreenStreamSession, error) {
	if opts == nil {
		opts = &StreamOptions{}
	}
	bitRate := opts.BitRate
	if bitRate == 0 {
		bitRate = c.cfg.Mirror.BitRate
	}
	return c.adb.StartScreenStream(ctx, serial, adb.StreamOptions{
		BitRate: bitRate,
		Size:    opts.Size,
	})
}

// AdbFound reports whether an adb binary can be located with the
// default discovery order.
//
// Returns:
//   - bool: True if a binary was found
func AdbFound() bool {
	cfg, err := config.Load()
	if err != nil {
		cfg = nil
	}
	return config.FindAdb(cfg) != ""
}

// GetConfig returns the configuration the client was built with.
//
// Returns:
//   - *config.Config: The active configuration
func (c *Client) GetConfig() *config.Config {
	return c.cfg
}
