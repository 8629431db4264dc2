package adb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// maxAttempts bounds one logical operation: the initial try plus
	// two retries, each preceded by a fresh dial.
	maxAttempts = 3

	retryInitialInterval = 100 * time.Millisecond
	retryMaxInterval     = time.Second
)

// Client issues operations against the adb server. Each operation opens
// its own connection; the client itself holds no socket state, so one
// Client is safe for concurrent use.
//
// When an operation fails in a way a server restart could fix, the
// client restarts the server (once per operation, deduplicated across
// concurrent operations by the coordinator) and retries with backoff.
type Client struct {
	addr    string
	adbPath string
	coord   *Coordinator
}

// NewClient returns a client for the server at the default address.
//
// Parameters:
//   - adbPath: Path to the adb binary, used only to restart the server.
//     May be empty; restarts then fail with NotFoundError.
func NewClient(adbPath string) *Client {
	return NewClientWithAddress(adbPath, DefaultServerAddr)
}

// NewClientWithAddress returns a client for a server at a specific
// address, which tests point at an in-process fake.
func NewClientWithAddress(adbPath, addr string) *Client {
	return &Client{
		addr:    addr,
		adbPath: adbPath,
		coord:   NewCoordinator(),
	}
}

// run executes fn under the retry policy. Before every attempt it waits
// out any restart another operation already has in flight. The first
// retryable failure triggers a single restart for the whole loop;
// later attempts only re-wait. Non-retryable errors and exhaustion
// surface to the caller as-is.
func (c *Client) run(ctx context.Context, fn func(context.Context) error) error {
	restarted := false
	attempt := func() error {
		if err := c.coord.WaitForOngoingRestart(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		if !restarted {
			restarted = true
			if startErr := c.coord.StartServer(ctx, c.adbPath); startErr != nil {
				return backoff.Permanent(startErr)
			}
		}
		return asUnavailable(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxInterval = retryMaxInterval
	bo.RandomizationFactor = 0
	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx))
}

// open dials the server.
func (c *Client) open(ctx context.Context) (*Conn, error) {
	return dialServer(ctx, c.addr)
}

// openTransport dials the server and binds the connection to one device.
// Every device-scoped service goes through this handshake first.
func (c *Client) openTransport(ctx context.Context, serial string) (*Conn, error) {
	conn, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.Send(ctx, "host:transport:"+serial); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// Shell runs a command through the device's shell service and returns
// its combined output. The shell service allocates a PTY, so output may
// carry CR/LF line endings; callers that need clean binary use Exec.
func (c *Client) Shell(ctx context.Context, serial, command string) (string, error) {
	var out []byte
	err := c.run(ctx, func(ctx context.Context) error {
		conn, err := c.openTransport(ctx, serial)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := conn.Send(ctx, "shell:"+command); err != nil {
			return err
		}
		out, err = conn.ReadAll(ctx)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Exec runs a command through the device's exec service, which skips
// the PTY and delivers output byte-exact. Used for screenshots and any
// other binary-producing command.
func (c *Client) Exec(ctx context.Context, serial, command string) ([]byte, error) {
	var out []byte
	err := c.run(ctx, func(ctx context.Context) error {
		conn, err := c.openTransport(ctx, serial)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := conn.Send(ctx, "exec:"+command); err != nil {
			return err
		}
		out, err = conn.ReadAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Screenshot captures the device's screen as a PNG.
func (c *Client) Screenshot(ctx context.Context, serial string) ([]byte, error) {
	return c.Exec(ctx, serial, "screencap -p")
}

// Pull copies a file off the device via the sync service, streaming it
// chunk by chunk to localPath. A partial local file is removed on
// failure.
func (c *Client) Pull(ctx context.Context, serial, remotePath, localPath string) error {
	return c.run(ctx, func(ctx context.Context) error {
		conn, err := c.openTransport(ctx, serial)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := conn.Send(ctx, "sync:"); err != nil {
			return err
		}
		if err := conn.SendSync(ctx, "RECV", remotePath); err != nil {
			return err
		}

		f, err := os.Create(localPath)
		if err != nil {
			return backoff.Permanent(err)
		}
		err = conn.ReadSyncData(ctx, func(chunk []byte) error {
			_, werr := f.Write(chunk)
			return werr
		})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(localPath)
			return err
		}
		return nil
	})
}

// Forward maps a freshly allocated local TCP port to an abstract unix
// socket on the device. The returned handle is what RemoveForward needs
// to undo the mapping.
type Forward struct {
	Serial    string
	LocalPort int
	Remote    string
}

// Addr returns the local dial address for the forwarded port.
func (f *Forward) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", f.LocalPort)
}

// Forward asks the server to forward a local port to localabstract:name
// on the device. The local port is allocated here, by binding and
// releasing an ephemeral listener, rather than delegated to the server.
func (c *Client) Forward(ctx context.Context, serial, name string) (*Forward, error) {
	port, err := reserveEphemeralPort()
	if err != nil {
		return nil, err
	}
	remote := "localabstract:" + name
	err = c.run(ctx, func(ctx context.Context) error {
		conn, err := c.open(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		return conn.Send(ctx, fmt.Sprintf("host-serial:%s:forward:tcp:%d;%s", serial, port, remote))
	})
	if err != nil {
		return nil, err
	}
	return &Forward{Serial: serial, LocalPort: port, Remote: remote}, nil
}

// RemoveForward releases a port mapping created by Forward.
func (c *Client) RemoveForward(ctx context.Context, fwd *Forward) error {
	return c.run(ctx, func(ctx context.Context) error {
		conn, err := c.open(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		return conn.Send(ctx, fmt.Sprintf("host-serial:%s:killforward:tcp:%d", fwd.Serial, fwd.LocalPort))
	})
}

func reserveEphemeralPort() (int, error) {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port, nil
}

// propLine matches getprop's `[key]: [value]` output format.
var propLine = regexp.MustCompile(`^\[([^\]]+)\]: \[(.*)\]$`)

// Properties fetches the device's system properties as a map. A
// non-empty prefix filters to keys that start with it, which keeps the
// common "everything under ro." query cheap to consume.
func (c *Client) Properties(ctx context.Context, serial, prefix string) (map[string]string, error) {
	out, err := c.Shell(ctx, serial, "getprop")
	if err != nil {
		return nil, err
	}
	props := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		m := propLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		if prefix != "" && !strings.HasPrefix(m[1], prefix) {
			continue
		}
		props[m[1]] = m[2]
	}
	return props, nil
}

// ListDevices fetches a one-shot device list, returned in the same
// normalized snapshot form TrackDevices yields.
func (c *Client) ListDevices(ctx context.Context) (string, error) {
	var snapshot string
	err := c.run(ctx, func(ctx context.Context) error {
		conn, err := c.open(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := conn.Send(ctx, "host:devices-l"); err != nil {
			return err
		}
		payload, err := conn.ReadPayload(ctx)
		if err != nil {
			return err
		}
		snapshot = normalizeSnapshot(string(payload))
		return nil
	})
	if err != nil {
		return "", err
	}
	return snapshot, nil
}

// ServerVersion reports the server's protocol version, read from the
// host:version service. The call runs outside the restart policy, so
// probing a down server does not start one.
func (c *Client) ServerVersion(ctx context.Context) (int, error) {
	conn, err := c.open(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	if err := conn.Send(ctx, "host:version"); err != nil {
		return 0, err
	}
	payload, err := conn.ReadPayload(ctx)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(payload)), 16, 32)
	if err != nil {
		return 0, &ParseError{What: "server version", Input: string(payload)}
	}
	return int(v), nil
}

// TrackDevices opens a push stream of device-list snapshots. Only the
// dial and subscription handshake run under the retry policy; once the
// stream is live, failures belong to the caller's reconnect loop.
func (c *Client) TrackDevices(ctx context.Context) (*DeviceListStream, error) {
	var stream *DeviceListStream
	err := c.run(ctx, func(ctx context.Context) error {
		conn, err := c.open(ctx)
		if err != nil {
			return err
		}
		if err := conn.Send(ctx, "host:track-devices-l"); err != nil {
			_ = conn.Close()
			return err
		}
		stream = newDeviceListStream(conn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}

var (
	overrideSizeRe  = regexp.MustCompile(`Override size:\s*(\d+)x(\d+)`)
	physicalSizeRe  = regexp.MustCompile(`Physical size:\s*(\d+)x(\d+)`)
	deviceSizeRe    = regexp.MustCompile(`deviceWidth=(\d+), deviceHeight=(\d+)`)
	overrideDensRe  = regexp.MustCompile(`Override density:\s*(\d+)`)
	physicalDensRe  = regexp.MustCompile(`Physical density:\s*(\d+)`)
)

// DisplaySize probes the device's current display resolution. `wm size`
// answers on anything remotely modern; `dumpsys display` is the fallback
// for builds where it does not. Both failing to yield a geometry is a
// ParseError.
func (c *Client) DisplaySize(ctx context.Context, serial string) (width, height int, err error) {
	out, err := c.Shell(ctx, serial, "wm size")
	if err == nil {
		if w, h, ok := matchSize(overrideSizeRe, out); ok {
			return w, h, nil
		}
		if w, h, ok := matchSize(physicalSizeRe, out); ok {
			return w, h, nil
		}
	}
	out2, err2 := c.Shell(ctx, serial, "dumpsys display")
	if err2 == nil {
		if w, h, ok := matchSize(deviceSizeRe, out2); ok {
			return w, h, nil
		}
	}
	if err != nil {
		return 0, 0, err
	}
	if err2 != nil {
		return 0, 0, err2
	}
	return 0, 0, &ParseError{What: "display size", Input: strings.TrimSpace(out)}
}

// DisplayDensity probes the device's display density in dpi.
func (c *Client) DisplayDensity(ctx context.Context, serial string) (int, error) {
	out, err := c.Shell(ctx, serial, "wm density")
	if err == nil {
		if m := overrideDensRe.FindStringSubmatch(out); m != nil {
			return strconv.Atoi(m[1])
		}
		if m := physicalDensRe.FindStringSubmatch(out); m != nil {
			return strconv.Atoi(m[1])
		}
	}
	out2, err2 := c.Shell(ctx, serial, "getprop ro.sf.lcd_density")
	if err2 == nil {
		if d, aerr := strconv.Atoi(strings.TrimSpace(out2)); aerr == nil && d > 0 {
			return d, nil
		}
	}
	if err != nil {
		return 0, err
	}
	if err2 != nil {
		return 0, err2
	}
	return 0, &ParseError{What: "display density", Input: strings.TrimSpace(out)}
}

func matchSize(re *regexp.Regexp, out string) (int, int, bool) {
	m := re.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, false
	}
	w, werr := strconv.Atoi(m[1])
	h, herr := strconv.Atoi(m[2])
	if werr != nil || herr != nil {
		return 0, 0, false
	}
	return w, h, true
}
