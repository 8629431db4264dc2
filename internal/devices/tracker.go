package devices

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/snap-o/cli/internal/adb"
)

// reconnectDelay paces reconnect attempts while the track-devices
// stream is down but subscribers remain.
const reconnectDelay = time.Second

// snapshotStream is the slice of adb.DeviceListStream the tracker
// consumes, split out so tests can feed scripted snapshots.
type snapshotStream interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// source is the tracker's view of the adb client.
type source interface {
	openStream(ctx context.Context) (snapshotStream, error)
	properties(ctx context.Context, serial string) (map[string]string, error)
}

type adbSource struct {
	client *adb.Client
}

func (s adbSource) openStream(ctx context.Context) (snapshotStream, error) {
	return s.client.TrackDevices(ctx)
}

func (s adbSource) properties(ctx context.Context, serial string) (map[string]string, error) {
	return s.client.Properties(ctx, serial, "ro.")
}

// Tracker converts the server's device-list push stream into enriched
// Device snapshots and fans them out to subscribers.
//
// The tracking loop runs only while at least one subscription is open:
// the first Subscribe starts it and the last Close stops it. While
// running it reconnects after failures, so a server restart costs
// subscribers a delay rather than their subscription. Identity
// enrichment is fetched once per serial and kept for the tracker's
// lifetime; plugging the same phone in twice does not query it twice.
type Tracker struct {
	src source

	mu        sync.Mutex
	subs      map[*Subscription]struct{}
	latest    []Device
	hasLatest bool
	cancel    context.CancelFunc
	loopDone  chan struct{}

	idMu       sync.Mutex
	identities map[string]identity

	delay time.Duration
}

// NewTracker returns a tracker backed by client. The tracking loop
// starts lazily with the first subscription.
func NewTracker(client *adb.Client) *Tracker {
	return newTracker(adbSource{client: client})
}

func newTracker(src source) *Tracker {
	return &Tracker{
		src:        src,
		subs:       make(map[*Subscription]struct{}),
		identities: make(map[string]identity),
		delay:      reconnectDelay,
	}
}

// Subscription is one subscriber's view of the device list. Receive
// from Devices; Close when done.
type Subscription struct {
	tracker *Tracker
	ch      chan []Device
	once    sync.Once
}

// Devices delivers device-list snapshots. The channel holds only the
// newest snapshot: a slow receiver skips intermediate states instead of
// lagging behind, and never delays other subscribers. It is closed by
// Close.
func (s *Subscription) Devices() <-chan []Device {
	return s.ch
}

// Close cancels the subscription. Closing the last subscription stops
// the tracking loop; enrichment stays cached for the next subscriber.
func (s *Subscription) Close() {
	s.once.Do(func() { s.tracker.unsubscribe(s) })
}

// push delivers list without ever blocking, displacing an unread older
// snapshot if the receiver has not kept up.
func (s *Subscription) push(list []Device) {
	for {
		select {
		case s.ch <- list:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

// Subscribe registers a new subscriber. If a snapshot has already been
// observed it is delivered immediately, so late subscribers render the
// current state without waiting for the next device event.
func (t *Tracker) Subscribe() *Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub := &Subscription{tracker: t, ch: make(chan []Device, 1)}
	t.subs[sub] = struct{}{}
	if t.hasLatest {
		sub.ch <- t.latest
	}

	if t.cancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		t.cancel = cancel
		t.loopDone = make(chan struct{})
		go t.track(ctx, t.loopDone)
	}
	return sub
}

func (t *Tracker) unsubscribe(sub *Subscription) {
	t.mu.Lock()
	delete(t.subs, sub)
	close(sub.ch)
	var cancel context.CancelFunc
	if len(t.subs) == 0 && t.cancel != nil {
		cancel = t.cancel
		t.cancel = nil
	}
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// publish records list as the latest snapshot and hands it to every
// subscriber.
func (t *Tracker) publish(list []Device) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = list
	t.hasLatest = true
	for sub := range t.subs {
		sub.push(list)
	}
}

// track is the connection lifecycle loop: connect, consume snapshots
// until the stream dies, wait, reconnect. It exits when the context is
// cancelled by the last unsubscribe.
func (t *Tracker) track(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		if ctx.Err() != nil {
			return
		}
		stream, err := t.src.openStream(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Debug("Device tracking connect failed", "error", err)
			if !sleepCtx(ctx, t.delay) {
				return
			}
			continue
		}
		t.consume(ctx, stream)
		_ = stream.Close()
		if !sleepCtx(ctx, t.delay) {
			return
		}
	}
}

func (t *Tracker) consume(ctx context.Context, stream snapshotStream) {
	for {
		snapshot, err := stream.Next(ctx)
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				log.Debug("Device tracking stream ended", "error", err)
			}
			return
		}
		t.publish(t.resolve(ctx, parseSnapshot(snapshot)))
	}
}

// resolve enriches entries through the identity cache. Serials not yet
// cached are queried concurrently; a failed query is not cached, so the
// next snapshot retries it.
func (t *Tracker) resolve(ctx context.Context, entries []listEntry) []Device {
	return resolveEntries(ctx, t.cachedIdentity, entries)
}

func (t *Tracker) cachedIdentity(ctx context.Context, serial string) identity {
	t.idMu.Lock()
	if id, ok := t.identities[serial]; ok {
		t.idMu.Unlock()
		return id
	}
	t.idMu.Unlock()

	props, err := t.src.properties(ctx, serial)
	if err != nil {
		log.Debug("Device property query failed", "serial", serial, "error", err)
		return identity{}
	}
	id := identityFromProps(props)

	t.idMu.Lock()
	t.identities[serial] = id
	t.idMu.Unlock()
	return id
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// List performs a one-shot listing with the same parsing and enrichment
// the tracker applies, for callers that want the current device set
// without a subscription.
func List(ctx context.Context, client *adb.Client) ([]Device, error) {
	snapshot, err := client.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context, serial string) identity {
		props, err := client.Properties(ctx, serial, "ro.")
		if err != nil {
			log.Debug("Device property query failed", "serial", serial, "error", err)
			return identity{}
		}
		return identityFromProps(props)
	}
	return resolveEntries(ctx, fetch, parseSnapshot(snapshot)), nil
}
