package adb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// defaultStreamBitRate trades quality for latency; mirroring wants
// frames now, not fidelity later.
const defaultStreamBitRate = 4_000_000

// StreamOptions configures StartScreenStream. An empty Size lets the
// device encode at native resolution.
type StreamOptions struct {
	BitRate int
	Size    string
}

// ScreenStreamSession is a live raw H.264 feed of a device's screen.
// The elementary stream arrives in Annex-B form on a held-open exec
// connection; callers pull it off with ReadChunk and stop the remote
// encoder by closing the session.
type ScreenStreamSession struct {
	Serial    string
	StartedAt time.Time

	conn *Conn
}

// StartScreenStream launches an unbounded screenrecord run that encodes
// to stdout instead of a file. It goes through the exec service so the
// byte stream arrives unmangled by a PTY. As a side effect the device
// is sent a wake key-event, since a sleeping screen encodes to nothing
// worth watching.
func (c *Client) StartScreenStream(ctx context.Context, serial string, opts StreamOptions) (*ScreenStreamSession, error) {
	if opts.BitRate <= 0 {
		opts.BitRate = defaultStreamBitRate
	}
	var b strings.Builder
	fmt.Fprintf(&b, "screenrecord --output-format=h264 --bit-rate %d", opts.BitRate)
	if opts.Size != "" {
		fmt.Fprintf(&b, " --size %s", opts.Size)
	}
	b.WriteString(" --time-limit 0 -")

	var session *ScreenStreamSession
	err := c.run(ctx, func(ctx context.Context) error {
		conn, err := c.openTransport(ctx, serial)
		if err != nil {
			return err
		}
		if err := conn.Send(ctx, "exec:"+b.String()); err != nil {
			_ = conn.Close()
			return err
		}
		session = &ScreenStreamSession{
			Serial:    serial,
			StartedAt: time.Now(),
			conn:      conn,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, werr := c.Shell(ctx, serial, "input keyevent KEYCODE_WAKEUP"); werr != nil {
		log.Debug("Wake key-event failed", "serial", serial, "error", werr)
	}
	return session, nil
}

// ReadChunk returns the next slice of the H.264 stream, up to max
// bytes. io.EOF means the remote encoder exited.
func (s *ScreenStreamSession) ReadChunk(ctx context.Context, max int) ([]byte, error) {
	return s.conn.ReadChunk(ctx, max)
}

// Close stops the stream. Closing the socket is the cancellation
// signal: the server tears down the remote screenrecord when its
// connection drops.
func (s *ScreenStreamSession) Close() error {
	return s.conn.Close()
}
