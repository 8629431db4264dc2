package adb

import (
	"context"
	"io"
	"strings"
)

// DeviceListHeader is the fixed first line every normalized device-list
// snapshot starts with, mirroring the banner `adb devices` prints. The
// tracker's parser relies on it so one parser serves both the streaming
// and one-shot listings.
const DeviceListHeader = "List of devices attached"

type trackMode int

const (
	trackModeUndecided trackMode = iota
	trackModeLength
	trackModeDelimited
)

// DeviceListStream yields successive device-list snapshots from a
// held-open host:track-devices-l connection.
//
// Servers frame this stream two ways. Current ones prefix each snapshot
// with the usual 4-digit hex length; some older builds instead emit
// plain text with a blank line between snapshots. The first four bytes
// decide which dialect is in play: if they are all hex digits the stream
// is length-prefixed, otherwise those bytes are the start of text and
// the stream is read in the blank-line-delimited fallback mode.
type DeviceListStream struct {
	conn *Conn
	mode trackMode
	buf  []byte
	done bool
}

func newDeviceListStream(conn *Conn) *DeviceListStream {
	return &DeviceListStream{conn: conn}
}

// Next blocks until the server pushes the next snapshot and returns it
// in normalized form: the fixed header line, the device lines, and a
// trailing newline. Returns io.EOF when the server ends the stream.
func (s *DeviceListStream) Next(ctx context.Context) (string, error) {
	switch s.mode {
	case trackModeUndecided:
		return s.first(ctx)
	case trackModeLength:
		payload, err := s.conn.ReadPayload(ctx)
		if err != nil {
			return "", err
		}
		return normalizeSnapshot(string(payload)), nil
	default:
		return s.nextDelimited(ctx)
	}
}

// Close tears down the underlying connection. The tracker calls it both
// on shutdown and before a reconnect attempt.
func (s *DeviceListStream) Close() error {
	return s.conn.Close()
}

// first reads the four bytes that disambiguate the framing dialect and
// then produces the first snapshot in whichever mode was detected.
func (s *DeviceListStream) first(ctx context.Context) (string, error) {
	defer s.conn.guard(ctx)()

	head := make([]byte, 4)
	if _, err := io.ReadFull(s.conn.r, head); err != nil {
		if err == io.EOF {
			return "", io.EOF
		}
		return "", s.conn.ioErr(ctx, err)
	}

	if isHexDigits(head) {
		// Four hex digits bound a payload at 64 KiB, so any length
		// that parses is safe to read outright.
		s.mode = trackModeLength
		n, err := parseHexLength(head)
		if err != nil {
			return "", err
		}
		payload := make([]byte, n)
		if _, err := io.ReadFull(s.conn.r, payload); err != nil {
			return "", s.conn.ioErr(ctx, err)
		}
		return normalizeSnapshot(string(payload)), nil
	}

	s.mode = trackModeDelimited
	s.buf = append(s.buf, head...)
	return s.nextDelimited(ctx)
}

// nextDelimited accumulates raw text until a blank-line separator and
// emits everything before it as one snapshot. A final unterminated
// fragment at EOF is emitted as the last snapshot rather than dropped.
func (s *DeviceListStream) nextDelimited(ctx context.Context) (string, error) {
	for {
		if idx, width := blankLineIndex(s.buf); idx >= 0 {
			snapshot := string(s.buf[:idx])
			s.buf = s.buf[idx+width:]
			return normalizeSnapshot(snapshot), nil
		}
		if s.done {
			if len(s.buf) > 0 {
				snapshot := string(s.buf)
				s.buf = nil
				if strings.TrimSpace(snapshot) != "" {
					return normalizeSnapshot(snapshot), nil
				}
			}
			return "", io.EOF
		}

		chunk, err := s.conn.ReadChunk(ctx, readChunkSize)
		if err == io.EOF {
			s.done = true
			continue
		}
		if err != nil {
			return "", err
		}
		s.buf = append(s.buf, chunk...)
	}
}

// normalizeSnapshot wraps a raw snapshot payload in the canonical shape
// downstream parsers expect: header line first, one device per line,
// trailing newline, no blank interior lines.
func normalizeSnapshot(payload string) string {
	payload = strings.Trim(payload, "\r\n")
	var b strings.Builder
	b.WriteString(DeviceListHeader)
	b.WriteByte('\n')
	if payload != "" {
		b.WriteString(payload)
		b.WriteByte('\n')
	}
	return b.String()
}
