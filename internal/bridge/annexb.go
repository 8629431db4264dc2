// Package bridge relays a device's raw H.264 screen stream to browser
// viewers over WebSocket. The elementary stream is split into Annex-B
// NAL units so each WebSocket message is one decodable unit, and the
// stream's parameter sets and latest keyframe are cached so a viewer
// joining mid-stream can still initialize its decoder.
package bridge

// H.264 NAL unit types the hub cares about.
const (
	nalIDR = 5
	nalSPS = 7
	nalPPS = 8
)

// nalSplitter reassembles an Annex-B byte stream into complete NAL
// units. Units are emitted with their leading start code intact, which
// is the form browser-side decoders expect.
type nalSplitter struct {
	buf []byte
}

// startCodeIndex finds the next Annex-B start code at or after from,
// returning its offset and width (3 for 00 00 01, 4 for 00 00 00 01).
func startCodeIndex(buf []byte, from int) (idx, width int) {
	for i := from; i+2 < len(buf); i++ {
		if buf[i] != 0 || buf[i+1] != 0 {
			continue
		}
		if buf[i+2] == 1 {
			return i, 3
		}
		if buf[i+2] == 0 && i+3 < len(buf) && buf[i+3] == 1 {
			return i, 4
		}
	}
	return -1, 0
}

// push appends raw stream bytes and returns every NAL unit completed by
// them. A unit is complete once the next start code arrives; the final
// unit stays buffered until then. Bytes before the first start code are
// discarded.
func (s *nalSplitter) push(p []byte) [][]byte {
	s.buf = append(s.buf, p...)

	start, width := startCodeIndex(s.buf, 0)
	if start < 0 {
		// No start code yet. Keep only a tail that could be the
		// front of one split across pushes.
		if len(s.buf) > 3 {
			s.buf = append(s.buf[:0], s.buf[len(s.buf)-3:]...)
		}
		return nil
	}

	var units [][]byte
	for {
		next, nextWidth := startCodeIndex(s.buf, start+width)
		if next < 0 {
			break
		}
		unit := make([]byte, next-start)
		copy(unit, s.buf[start:next])
		units = append(units, unit)
		start, width = next, nextWidth
	}

	s.buf = append(s.buf[:0], s.buf[start:]...)
	return units
}

// flush returns the buffered tail as a final unit once the stream has
// ended. The tail only qualifies when it starts with a start code and
// carries at least one payload byte.
func (s *nalSplitter) flush() []byte {
	start, width := startCodeIndex(s.buf, 0)
	if start < 0 || len(s.buf) <= start+width {
		s.buf = s.buf[:0]
		return nil
	}
	unit := make([]byte, len(s.buf)-start)
	copy(unit, s.buf[start:])
	s.buf = s.buf[:0]
	return unit
}

// nalType extracts the unit type from an Annex-B NAL unit.
func nalType(unit []byte) byte {
	header := 3
	if len(unit) >= 4 && unit[2] == 0 {
		header = 4
	}
	if len(unit) <= header {
		return 0
	}
	return unit[header] & 0x1F
}
