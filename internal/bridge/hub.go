package bridge

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the deadline for a single WebSocket write.
	writeWait = 10 * time.Second

	// pongWait is how long a viewer may go silent before it is dropped.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// viewerQueue is how many NAL units a slow viewer may fall behind
	// before frames are dropped.
	viewerQueue = 64

	// pumpChunkSize is the read size used when draining the device
	// stream.
	pumpChunkSize = 32 * 1024
)

// ChunkReader is the source side of a screen stream: anything that
// yields raw H.264 bytes until the stream ends.
type ChunkReader interface {
	ReadChunk(ctx context.Context, max int) ([]byte, error)
}

// Hub fans one device's H.264 stream out to any number of WebSocket
// viewers. Each message is a single Annex-B NAL unit. The stream's SPS
// and PPS units and its most recent IDR frame are cached and replayed
// to viewers that join after the stream has started, so their decoders
// can initialize and show a picture without waiting for the encoder's
// next keyframe.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	viewers map[*viewer]struct{}
	sps     []byte
	pps     []byte
	idr     []byte
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a Hub with no viewers.
//
// Returns:
//   - *Hub: hub ready to serve WebSocket upgrades and broadcast units
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 256 * 1024,
			// The hub binds to loopback; origin checks add nothing.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		viewers: make(map[*viewer]struct{}),
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers the
// connection as a stream viewer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("WebSocket upgrade failed", "error", err)
		return
	}

	v := &viewer{
		conn: conn,
		send: make(chan []byte, viewerQueue),
	}

	h.mu.Lock()
	h.viewers[v] = struct{}{}
	// Late joiners need the parameter sets before any frame data, and
	// the last keyframe gives them a picture right away.
	if h.sps != nil {
		v.send <- h.sps
	}
	if h.pps != nil {
		v.send <- h.pps
	}
	if h.idr != nil {
		v.send <- h.idr
	}
	total := len(h.viewers)
	h.mu.Unlock()

	log.Debug("Viewer connected", "remote", conn.RemoteAddr(), "viewers", total)

	go v.writePump(h)
	go v.readPump(h)
}

// Broadcast queues one NAL unit to every connected viewer. Parameter
// sets and IDR frames are also cached for future viewers. Slow viewers
// lose their oldest queued unit rather than stalling the stream.
func (h *Hub) Broadcast(unit []byte) {
	t := nalType(unit)

	h.mu.Lock()
	defer h.mu.Unlock()

	switch t {
	case nalSPS:
		h.sps = unit
	case nalPPS:
		h.pps = unit
	case nalIDR:
		h.idr = unit
	}

	for v := range h.viewers {
		select {
		case v.send <- unit:
		default:
			// Queue full: drop the oldest unit to make room.
			select {
			case <-v.send:
			default:
			}
			select {
			case v.send <- unit:
			default:
			}
		}
	}
}

// Pump drains the device stream into the hub until the stream ends or
// ctx is canceled. A clean end of stream returns nil.
func (h *Hub) Pump(ctx context.Context, src ChunkReader) error {
	var split nalSplitter
	for {
		chunk, err := src.ReadChunk(ctx, pumpChunkSize)
		if len(chunk) > 0 {
			for _, unit := range split.push(chunk) {
				h.Broadcast(unit)
			}
		}
		if err == io.EOF {
			if unit := split.flush(); unit != nil {
				h.Broadcast(unit)
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ViewerCount reports how many viewers are currently connected.
func (h *Hub) ViewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		delete(h.viewers, v)
		close(v.send)
	}
}

func (h *Hub) unregister(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; ok {
		delete(h.viewers, v)
		close(v.send)
	}
}

// readPump consumes viewer messages. Viewers never send anything the
// hub acts on, but reading is required to process pong frames and to
// notice disconnects.
func (v *viewer) readPump(h *Hub) {
	defer func() {
		h.unregister(v)
		v.conn.Close()
	}()

	v.conn.SetReadLimit(1024)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the viewer's queue onto its connection and keeps the
// connection alive with pings.
func (v *viewer) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case unit, ok := <-v.send:
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.BinaryMessage, unit); err != nil {
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
