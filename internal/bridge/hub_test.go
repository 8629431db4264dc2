package bridge

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialHub connects a WebSocket client to a hub served by httptest.
func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial(%q) error = %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForViewers blocks until the hub has registered n viewers.
func waitForViewers(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ViewerCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ViewerCount() = %d, want %d", h.ViewerCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

// readBinary reads the next binary message from a viewer connection.
func readBinary(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Fatalf("ReadMessage() type = %d, want BinaryMessage", mt)
	}
	return data
}

func TestHub_BroadcastReachesViewer(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)
	waitForViewers(t, h, 1)

	unit := annexbUnit(5, 0x11, 0x22)
	h.Broadcast(unit)

	if got := readBinary(t, conn); !bytes.Equal(got, unit) {
		t.Errorf("viewer received %x, want %x", got, unit)
	}
}

func TestHub_LateJoinerReceivesDecoderState(t *testing.T) {
	h := NewHub()

	sps := annexbUnit(0x67, 0x64)
	pps := annexbUnit(0x68, 0xEE)
	idr := annexbUnit(0x65, 0x01)
	h.Broadcast(sps)
	h.Broadcast(pps)
	h.Broadcast(idr)
	// Non-IDR slices are not cached and must not be replayed.
	h.Broadcast(annexbUnit(1, 0x44))

	conn := dialHub(t, h)
	waitForViewers(t, h, 1)

	if got := readBinary(t, conn); !bytes.Equal(got, sps) {
		t.Errorf("first message = %x, want cached SPS %x", got, sps)
	}
	if got := readBinary(t, conn); !bytes.Equal(got, pps) {
		t.Errorf("second message = %x, want cached PPS %x", got, pps)
	}
	if got := readBinary(t, conn); !bytes.Equal(got, idr) {
		t.Errorf("third message = %x, want cached keyframe %x", got, idr)
	}

	frame := annexbUnit(1, 0x99)
	h.Broadcast(frame)
	if got := readBinary(t, conn); !bytes.Equal(got, frame) {
		t.Errorf("fourth message = %x, want live frame %x", got, frame)
	}
}

func TestHub_CachesLatestKeyframe(t *testing.T) {
	h := NewHub()

	h.Broadcast(annexbUnit(0x65, 0x01))
	latest := annexbUnit(0x65, 0x02)
	h.Broadcast(latest)

	conn := dialHub(t, h)
	waitForViewers(t, h, 1)

	if got := readBinary(t, conn); !bytes.Equal(got, latest) {
		t.Errorf("replayed keyframe = %x, want latest %x", got, latest)
	}
}

func TestHub_SlowViewerLosesOldestUnit(t *testing.T) {
	h := NewHub()
	v := &viewer{send: make(chan []byte, 2)}
	h.viewers[v] = struct{}{}

	first := annexbUnit(1, 0x01)
	second := annexbUnit(1, 0x02)
	third := annexbUnit(1, 0x03)
	h.Broadcast(first)
	h.Broadcast(second)
	h.Broadcast(third)

	if got := <-v.send; !bytes.Equal(got, second) {
		t.Errorf("queued[0] = %x, want %x", got, second)
	}
	if got := <-v.send; !bytes.Equal(got, third) {
		t.Errorf("queued[1] = %x, want %x", got, third)
	}
}

func TestHub_CloseDisconnectsViewers(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)
	waitForViewers(t, h, 1)

	h.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("ReadMessage() after Close() succeeded, want close error")
	}
	if h.ViewerCount() != 0 {
		t.Errorf("ViewerCount() = %d, want 0", h.ViewerCount())
	}
}

type scriptedStream struct {
	chunks [][]byte
	next   int
}

func (s *scriptedStream) ReadChunk(ctx context.Context, max int) ([]byte, error) {
	if s.next >= len(s.chunks) {
		return nil, io.EOF
	}
	chunk := s.chunks[s.next]
	s.next++
	return chunk, nil
}

func TestHub_PumpSplitsStreamIntoUnits(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)
	waitForViewers(t, h, 1)

	sps := annexbUnit(0x67, 0xAA)
	frame := annexbUnit(0x65, 0xBB, 0xCC)
	stream := append(append([]byte{}, sps...), frame...)

	// Deliver the stream in chunks that split units mid-way.
	src := &scriptedStream{chunks: [][]byte{stream[:5], stream[5:9], stream[9:]}}
	if err := h.Pump(context.Background(), src); err != nil {
		t.Fatalf("Pump() error = %v", err)
	}

	if got := readBinary(t, conn); !bytes.Equal(got, sps) {
		t.Errorf("first unit = %x, want %x", got, sps)
	}
	if got := readBinary(t, conn); !bytes.Equal(got, frame) {
		t.Errorf("second unit = %x, want %x", got, frame)
	}
}

func TestHub_PumpReturnsStreamError(t *testing.T) {
	h := NewHub()

	err := h.Pump(context.Background(), failingStream{err: context.Canceled})
	if err != context.Canceled {
		t.Fatalf("Pump() error = %v, want context.Canceled", err)
	}
}

type failingStream struct {
	err error
}

func (f failingStream) ReadChunk(ctx context.Context, max int) ([]byte, error) {
	return nil, f.err
}
