// Package adb implements a client for the adb host server's TCP wire
// protocol. It talks directly to the server socket on 127.0.0.1:5037
// rather than shelling out to the adb binary, so device listings, shell
// commands, and screen capture streams cost one socket each instead of
// one process each. The binary itself is only needed to (re)start the
// server when nothing is listening.
package adb

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

const (
	// DefaultServerAddr is where the adb host server listens.
	DefaultServerAddr = "127.0.0.1:5037"

	// statusOkay and statusFail are the two documented reply statuses.
	statusOkay = "OKAY"
	statusFail = "FAIL"

	// readChunkSize bounds a single streaming read.
	readChunkSize = 64 * 1024
)

// Conn is a single connection to the adb server. The server dedicates
// each accepted connection to one request, so a Conn is never shared or
// pipelined: open, converse, close.
//
// Every blocking method takes a context. Cancellation closes the socket,
// which unwinds any in-flight read or write; the method then reports the
// context's error instead of the socket error the close provoked.
type Conn struct {
	sock net.Conn
	r    *bufio.Reader

	closeOnce sync.Once
	closeErr  error
}

// dialServer opens a fresh connection to the adb server. Connection
// errors are normalized to UnavailableError since a dead server is the
// one failure a restart can fix.
func dialServer(ctx context.Context, addr string) (*Conn, error) {
	var d net.Dialer
	sock, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnavailableError{Err: err}
	}
	return &Conn{sock: sock, r: bufio.NewReader(sock)}, nil
}

// Close shuts the connection down. Safe to call more than once and from
// a goroutine racing the reader; later calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.sock.Close()
	})
	return c.closeErr
}

// guard arranges for the socket to be closed if ctx is cancelled while a
// blocking call is in flight. The returned stop function releases the
// guard; every blocking method defers it.
func (c *Conn) guard(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() { _ = c.Close() })
}

// ioErr maps an I/O failure back to the context error when the guard's
// close was what caused it.
func (c *Conn) ioErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Send writes one request in the server's framing: four uppercase ASCII
// hex digits carrying the byte length, then the request itself. It then
// reads the 4-byte status. OKAY returns nil; FAIL decodes the server's
// explanation into a ProtocolError; anything else means the two sides
// have lost framing, which is also a ProtocolError.
func (c *Conn) Send(ctx context.Context, req string) error {
	defer c.guard(ctx)()

	frame := fmt.Sprintf("%04X%s", len(req), req)
	if _, err := c.sock.Write([]byte(frame)); err != nil {
		return c.ioErr(ctx, err)
	}

	status := make([]byte, 4)
	if _, err := io.ReadFull(c.r, status); err != nil {
		return c.ioErr(ctx, err)
	}
	switch string(status) {
	case statusOkay:
		return nil
	case statusFail:
		msg, err := c.readHexPayload()
		if err != nil {
			return c.ioErr(ctx, err)
		}
		return &ProtocolError{Reason: string(msg)}
	default:
		return &ProtocolError{Reason: fmt.Sprintf("unexpected status %q", status)}
	}
}

// ReadPayload reads one hex-length-prefixed payload. Returns io.EOF when
// the server closes the stream cleanly before the next header.
func (c *Conn) ReadPayload(ctx context.Context) ([]byte, error) {
	defer c.guard(ctx)()

	header := make([]byte, 4)
	if _, err := io.ReadFull(c.r, header); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, c.ioErr(ctx, err)
	}
	n, err := parseHexLength(header)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return nil, c.ioErr(ctx, err)
	}
	return payload, nil
}

// readHexPayload is ReadPayload without the context guard, for use inside
// methods that already hold one.
func (c *Conn) readHexPayload() ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.r, header); err != nil {
		return nil, err
	}
	n, err := parseHexLength(header)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// parseHexLength decodes a 4-digit ASCII hex length header. Parsing is
// case-insensitive even though Send always emits uppercase.
func parseHexLength(header []byte) (int, error) {
	n, err := strconv.ParseUint(string(header), 16, 32)
	if err != nil {
		return 0, &ProtocolError{Reason: fmt.Sprintf("malformed length header %q", header)}
	}
	return int(n), nil
}

// ReadAll drains the connection until the server closes it. Used for
// shell and exec output, where EOF is the only end-of-output signal the
// protocol offers.
func (c *Conn) ReadAll(ctx context.Context) ([]byte, error) {
	defer c.guard(ctx)()

	data, err := io.ReadAll(c.r)
	if err != nil {
		return nil, c.ioErr(ctx, err)
	}
	return data, nil
}

// ReadChunk performs a single read of at most max bytes, returning
// whatever arrived. It returns io.EOF at a clean end of stream, which is
// how screen-capture consumers notice the remote recorder exiting.
func (c *Conn) ReadChunk(ctx context.Context, max int) ([]byte, error) {
	defer c.guard(ctx)()

	if max <= 0 {
		max = readChunkSize
	}
	buf := make([]byte, max)
	n, err := c.r.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == io.EOF {
		return nil, io.EOF
	}
	return nil, c.ioErr(ctx, err)
}

// ReadLine reads up to the next newline and returns the line without its
// trailing CR/LF. A final unterminated line is returned as-is; io.EOF is
// only surfaced when no bytes remain at all.
func (c *Conn) ReadLine(ctx context.Context) (string, error) {
	defer c.guard(ctx)()

	line, err := c.r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if err == io.EOF {
			return "", io.EOF
		}
		return "", c.ioErr(ctx, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// SendSync writes one sync-service request: the four raw ASCII id bytes,
// a little-endian byte length, then the path, NUL-terminated if it is
// not already.
func (c *Conn) SendSync(ctx context.Context, id, path string) error {
	defer c.guard(ctx)()

	p := []byte(path)
	if len(p) == 0 || p[len(p)-1] != 0 {
		p = append(p, 0)
	}
	frame := make([]byte, 0, 8+len(p))
	frame = append(frame, id...)
	frame = binary.LittleEndian.AppendUint32(frame, uint32(len(p)))
	frame = append(frame, p...)
	if _, err := c.sock.Write(frame); err != nil {
		return c.ioErr(ctx, err)
	}
	return nil
}

// ReadSyncData consumes a sync-service data stream, invoking onChunk for
// each DATA payload in order. DONE (whose 4 trailing mtime bytes are
// discarded) completes the stream; FAIL carries a little-endian-length
// message and becomes a ProtocolError, as does any unknown id.
func (c *Conn) ReadSyncData(ctx context.Context, onChunk func([]byte) error) error {
	defer c.guard(ctx)()

	id := make([]byte, 4)
	var length [4]byte
	for {
		if _, err := io.ReadFull(c.r, id); err != nil {
			return c.ioErr(ctx, err)
		}
		switch string(id) {
		case "DATA":
			if _, err := io.ReadFull(c.r, length[:]); err != nil {
				return c.ioErr(ctx, err)
			}
			chunk := make([]byte, binary.LittleEndian.Uint32(length[:]))
			if _, err := io.ReadFull(c.r, chunk); err != nil {
				return c.ioErr(ctx, err)
			}
			if err := onChunk(chunk); err != nil {
				return err
			}
		case "DONE":
			if _, err := io.ReadFull(c.r, length[:]); err != nil {
				return c.ioErr(ctx, err)
			}
			return nil
		case "FAIL":
			if _, err := io.ReadFull(c.r, length[:]); err != nil {
				return c.ioErr(ctx, err)
			}
			msg := make([]byte, binary.LittleEndian.Uint32(length[:]))
			if _, err := io.ReadFull(c.r, msg); err != nil {
				return c.ioErr(ctx, err)
			}
			return &ProtocolError{Reason: string(msg)}
		default:
			return &ProtocolError{Reason: fmt.Sprintf("unexpected sync id %q", id)}
		}
	}
}

// isHexDigits reports whether every byte of b is an ASCII hex digit.
func isHexDigits(b []byte) bool {
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return len(b) > 0
}

// blankLineIndex locates the earliest blank-line separator in buf,
// returning its offset and width, or (-1, 0) if none is present.
func blankLineIndex(buf []byte) (idx, width int) {
	lf := bytes.Index(buf, []byte("\n\n"))
	crlf := bytes.Index(buf, []byte("\r\n\r\n"))
	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case lf < 0:
		return crlf, 4
	case crlf < 0:
		return lf, 2
	case crlf < lf:
		return crlf, 4
	default:
		return lf, 2
	}
}
