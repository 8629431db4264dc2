package devices

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"
)

type fakeStream struct {
	ch chan string
}

func (s *fakeStream) Next(ctx context.Context) (string, error) {
	select {
	case snap, ok := <-s.ch:
		if !ok {
			return "", io.EOF
		}
		return snap, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *fakeStream) Close() error { return nil }

func (s *fakeStream) send(snapshot string) { s.ch <- snapshot }
func (s *fakeStream) end()                 { close(s.ch) }

type fakeSource struct {
	mu        sync.Mutex
	streams   chan *fakeStream
	props     map[string]map[string]string
	propCalls map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		streams:   make(chan *fakeStream, 4),
		props:     make(map[string]map[string]string),
		propCalls: make(map[string]int),
	}
}

func (f *fakeSource) addStream() *fakeStream {
	s := &fakeStream{ch: make(chan string)}
	f.streams <- s
	return s
}

func (f *fakeSource) setProps(serial string, props map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props[serial] = props
}

func (f *fakeSource) calls(serial string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.propCalls[serial]
}

func (f *fakeSource) openStream(ctx context.Context) (snapshotStream, error) {
	select {
	case s := <-f.streams:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeSource) properties(ctx context.Context, serial string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.propCalls[serial]++
	if p, ok := f.props[serial]; ok {
		return p, nil
	}
	return map[string]string{}, nil
}

func testTracker(src *fakeSource) *Tracker {
	tr := newTracker(src)
	tr.delay = 5 * time.Millisecond
	return tr
}

// receive waits for the next snapshot matching accept, draining stale
// intermediate deliveries along the way.
func receive(t *testing.T, sub *Subscription, accept func([]Device) bool) []Device {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case list, ok := <-sub.Devices():
			if !ok {
				t.Fatal("subscription channel closed while waiting")
			}
			if accept(list) {
				return list
			}
		case <-deadline:
			t.Fatal("timed out waiting for a device snapshot")
		}
	}
}

func TestTrackerSubscribe_DeliversEnrichedSnapshots(t *testing.T) {
	src := newFakeSource()
	src.setProps("emulator-5554", map[string]string{
		"ro.build.version.release": "14",
		"ro.boot.qemu.avd_name":    "Pixel_7_API_34",
	})
	stream := src.addStream()

	tr := testTracker(src)
	sub := tr.Subscribe()
	defer sub.Close()

	stream.send("List of devices attached\nemulator-5554 device model:sdk_gphone64_arm64\n")

	list := receive(t, sub, func(l []Device) bool { return len(l) == 1 })
	d := list[0]
	if d.Serial != "emulator-5554" {
		t.Errorf("Serial = %q", d.Serial)
	}
	if d.Model != "sdk_gphone64_arm64" {
		t.Errorf("Model = %q, want the inline hint", d.Model)
	}
	if d.AndroidVersion != "14" {
		t.Errorf("AndroidVersion = %q, want enriched value", d.AndroidVersion)
	}
	if d.AVDName != "Pixel 7 API 34" {
		t.Errorf("AVDName = %q, want normalized AVD name", d.AVDName)
	}
}

func TestTrackerEnrichment_OncePerSerial(t *testing.T) {
	src := newFakeSource()
	stream := src.addStream()

	tr := testTracker(src)
	sub := tr.Subscribe()
	defer sub.Close()

	stream.send("List of devices attached\nserial-a device\n")
	receive(t, sub, func(l []Device) bool { return len(l) == 1 })

	stream.send("List of devices attached\nserial-a device\nserial-b device\n")
	receive(t, sub, func(l []Device) bool { return len(l) == 2 })

	if n := src.calls("serial-a"); n != 1 {
		t.Errorf("serial-a queried %d times, want 1 (memoized)", n)
	}
	if n := src.calls("serial-b"); n != 1 {
		t.Errorf("serial-b queried %d times, want 1", n)
	}
}

func TestTrackerSubscribe_ReplaysLatestSnapshot(t *testing.T) {
	src := newFakeSource()
	stream := src.addStream()

	tr := testTracker(src)
	first := tr.Subscribe()
	defer first.Close()

	stream.send("List of devices attached\nserial-a device\n")
	receive(t, first, func(l []Device) bool { return len(l) == 1 })

	// No new snapshot is fed; the late subscriber must still see state.
	second := tr.Subscribe()
	defer second.Close()
	list := receive(t, second, func(l []Device) bool { return len(l) == 1 })
	if list[0].Serial != "serial-a" {
		t.Errorf("replayed Serial = %q, want serial-a", list[0].Serial)
	}
}

func TestTrackerSlowSubscriber_SeesNewestSnapshot(t *testing.T) {
	src := newFakeSource()
	stream := src.addStream()

	tr := testTracker(src)
	sub := tr.Subscribe()
	defer sub.Close()

	// Three quick snapshots with nobody receiving; the unread buffer
	// must end up holding the newest, not the first.
	stream.send("List of devices attached\nserial-1 device\n")
	stream.send("List of devices attached\nserial-2 device\n")
	stream.send("List of devices attached\nserial-3 device\n")

	receive(t, sub, func(l []Device) bool {
		return len(l) == 1 && l[0].Serial == "serial-3"
	})
}

func TestTrackerReconnects_AfterStreamEnds(t *testing.T) {
	src := newFakeSource()
	first := src.addStream()
	second := src.addStream()

	tr := testTracker(src)
	sub := tr.Subscribe()
	defer sub.Close()

	first.send("List of devices attached\nserial-a device\n")
	receive(t, sub, func(l []Device) bool { return len(l) == 1 && l[0].Serial == "serial-a" })

	first.end()
	second.send("List of devices attached\nserial-b device\n")
	receive(t, sub, func(l []Device) bool { return len(l) == 1 && l[0].Serial == "serial-b" })
}

func TestTrackerUnsubscribe_StopsLoop(t *testing.T) {
	src := newFakeSource()
	src.addStream()

	tr := testTracker(src)
	sub := tr.Subscribe()

	tr.mu.Lock()
	done := tr.loopDone
	tr.mu.Unlock()

	sub.Close()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("tracking loop still running after last unsubscribe")
	}

	if _, ok := <-sub.Devices(); ok {
		t.Error("subscription channel left open after Close")
	}
}
