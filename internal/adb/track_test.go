package adb

import (
	"context"
	"io"
	"net"
	"testing"
)

func trackStream(t *testing.T, raw string) *DeviceListStream {
	t.Helper()
	addr := startTestServer(t, func(c net.Conn) {
		defer c.Close()
		io.WriteString(c, raw)
	})
	conn := mustDial(t, addr)
	return newDeviceListStream(conn)
}

func collectSnapshots(t *testing.T, s *DeviceListStream) []string {
	t.Helper()
	var snapshots []string
	for {
		snap, err := s.Next(context.Background())
		if err == io.EOF {
			return snapshots
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		snapshots = append(snapshots, snap)
	}
}

func TestDeviceListStream_LengthPrefixed(t *testing.T) {
	s := trackStream(t, "0005abcde0004wxyz")
	got := collectSnapshots(t, s)
	want := []string{
		"List of devices attached\nabcde\n",
		"List of devices attached\nwxyz\n",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d snapshots, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("snapshot %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDeviceListStream_LengthPrefixedEmptyList(t *testing.T) {
	s := trackStream(t, "0000")
	got := collectSnapshots(t, s)
	if len(got) != 1 || got[0] != "List of devices attached\n" {
		t.Fatalf("got %q, want a single header-only snapshot", got)
	}
}

func TestDeviceListStream_LineDelimitedFallback(t *testing.T) {
	// First four bytes are not hex digits, so this server speaks the
	// blank-line-delimited dialect.
	s := trackStream(t, "line1\nline2\n\nline3\n\n")
	got := collectSnapshots(t, s)
	want := []string{
		"List of devices attached\nline1\nline2\n",
		"List of devices attached\nline3\n",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d snapshots %q, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("snapshot %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDeviceListStream_LineDelimitedCRLF(t *testing.T) {
	s := trackStream(t, "serial-a\tdevice\r\n\r\nserial-b\tdevice\r\n\r\n")
	got := collectSnapshots(t, s)
	if len(got) != 2 {
		t.Fatalf("got %d snapshots %q, want 2", len(got), got)
	}
	if got[0] != "List of devices attached\nserial-a\tdevice\n" {
		t.Errorf("snapshot 0 = %q", got[0])
	}
}

func TestDeviceListStream_TrailingFragmentEmitted(t *testing.T) {
	s := trackStream(t, "only-one\ttruncated")
	got := collectSnapshots(t, s)
	if len(got) != 1 || got[0] != "List of devices attached\nonly-one\ttruncated\n" {
		t.Fatalf("got %q, want the unterminated fragment as a final snapshot", got)
	}
}

func TestNormalizeSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"bare line", "abc", "List of devices attached\nabc\n"},
		{"trailing newline kept single", "abc\n", "List of devices attached\nabc\n"},
		{"crlf stripped", "abc\r\n", "List of devices attached\nabc\n"},
		{"empty", "", "List of devices attached\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeSnapshot(tt.payload); got != tt.want {
				t.Errorf("normalizeSnapshot(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}
