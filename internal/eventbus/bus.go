package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"opsconsole/internal/platform/metrics"
)

const (
	defaultHeartbeat  = 15 * time.Second
	defaultBufferSize = 64
	sinkQueueSize     = 256
)

// Bus owns the subscriber registry and the log ring. Delivery to one
// subscriber is independent of every other: a full or dead sink removes that
// subscriber and never fails the publish as a whole.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*subscriber

	// pubMu serializes ring append + fan-out so every subscriber observes
	// entries in seq order.
	pubMu sync.Mutex

	ring      *ring
	seq       atomic.Uint64
	heartbeat time.Duration
	buffer    int

	logger  *slog.Logger
	metrics *metrics.Metrics

	sinkCh chan Entry
	sinkWG sync.WaitGroup
	sinks  []Sink

	closed atomic.Bool
}

// Option configures a Bus.
type Option func(*Bus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// WithHeartbeatInterval overrides the 15s default; tests shorten it.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.heartbeat = d
		}
	}
}

// WithBufferSize sets the per-subscriber channel depth.
func WithBufferSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithSinks attaches external sinks fed by the background sink worker.
func WithSinks(sinks ...Sink) Option {
	return func(b *Bus) { b.sinks = append(b.sinks, sinks...) }
}

// New builds a Bus with a ring of the given capacity (<=0 uses 1000).
func New(capacity int, opts ...Option) *Bus {
	b := &Bus{
		subs:      make(map[string]*subscriber),
		ring:      newRing(capacity),
		heartbeat: defaultHeartbeat,
		buffer:    defaultBufferSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.sinks) > 0 {
		b.sinkCh = make(chan Entry, sinkQueueSize)
		b.sinkWG.Add(1)
		go b.runSinkWorker()
	}
	return b
}

type subscriber struct {
	id     string
	events chan Event
	done   chan struct{}
}

// Subscription is a live stream handle. Events is closed when the
// subscriber is removed, either by Close or by the bus after a stalled
// delivery.
type Subscription struct {
	ID     string
	Events <-chan Event

	bus *Bus
}

// Close unsubscribes. Idempotent and safe to call concurrently with Publish.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.ID)
}

// Subscribe registers a new subscriber and immediately queues a connected
// event carrying its id to that subscriber only. Registration never blocks.
func (b *Bus) Subscribe() *Subscription {
	sub := &subscriber{
		id:     uuid.NewString(),
		events: make(chan Event, b.buffer),
		done:   make(chan struct{}),
	}

	// Queued before registration: the channel is still private here, so the
	// connected event is guaranteed to be first and can never race a close.
	sub.events <- Event{
		Type: EventConnected,
		Time: time.Now().UTC(),
		Data: map[string]string{"clientId": sub.id},
	}

	b.mu.Lock()
	if b.closed.Load() {
		b.mu.Unlock()
		close(sub.events)
		return &Subscription{ID: sub.id, Events: sub.events, bus: b}
	}
	b.subs[sub.id] = sub
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.SubscribersLive.Inc()
	}
	b.logger.Info("stream subscriber connected", "subscriber_id", sub.id)

	go b.runHeartbeat(sub)

	return &Subscription{ID: sub.id, Events: sub.events, bus: b}
}

// Unsubscribe removes a subscriber by id. Idempotent.
func (b *Bus) Unsubscribe(id string) {
	b.unsubscribe(id)
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(sub.done)
		close(sub.events)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	if b.metrics != nil {
		b.metrics.SubscribersLive.Dec()
	}
	b.logger.Info("stream subscriber removed", "subscriber_id", id)
}

// Info publishes an info-level entry.
func (b *Bus) Info(message string) { b.publish(LevelInfo, message) }

// Warn publishes a warn-level entry.
func (b *Bus) Warn(message string) { b.publish(LevelWarn, message) }

// Error publishes an error-level entry.
func (b *Bus) Error(message string) { b.publish(LevelError, message) }

func (b *Bus) publish(level Level, message string) {
	if b.closed.Load() {
		return
	}

	b.pubMu.Lock()
	entry := Entry{
		Seq:     b.seq.Add(1),
		Time:    time.Now().UTC(),
		Level:   level,
		Message: message,
	}
	b.ring.append(entry)

	ev := logEvent(entry)
	b.mu.RLock()
	var stalled []string
	for id, sub := range b.subs {
		select {
		case sub.events <- ev:
		default:
			stalled = append(stalled, id)
		}
	}
	b.mu.RUnlock()
	b.pubMu.Unlock()

	for _, id := range stalled {
		b.kick(id)
	}

	if b.metrics != nil {
		b.metrics.EventsPublished.Inc()
	}

	if b.sinkCh != nil {
		select {
		case b.sinkCh <- entry:
		default:
			b.logger.Warn("sink queue full, entry dropped", "seq", entry.Seq)
		}
	}
}

// kick removes a subscriber that failed or stalled a delivery.
func (b *Bus) kick(id string) {
	b.mu.RLock()
	_, present := b.subs[id]
	b.mu.RUnlock()
	if !present {
		return
	}
	if b.metrics != nil {
		b.metrics.SubscribersKicked.Inc()
	}
	b.logger.Warn("stream subscriber stalled, removing", "subscriber_id", id)
	b.unsubscribe(id)
}

// RecentHistory returns up to the last n ring entries, oldest first, without
// touching subscriber state. n <= 0 returns everything retained.
func (b *Bus) RecentHistory(n int) []Entry {
	return b.ring.last(n)
}

// SubscriberCount reports the current registry size.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) runHeartbeat(sub *subscriber) {
	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-sub.done:
			return
		case <-ticker.C:
			ev := Event{
				Type: EventHeartbeat,
				Time: time.Now().UTC(),
			}
			b.mu.RLock()
			_, present := b.subs[sub.id]
			delivered := false
			if present {
				select {
				case sub.events <- ev:
					delivered = true
				default:
				}
			}
			b.mu.RUnlock()
			if !present {
				return
			}
			if !delivered {
				b.kick(sub.id)
				return
			}
		}
	}
}

func (b *Bus) runSinkWorker() {
	defer b.sinkWG.Done()
	ctx := context.Background()
	for entry := range b.sinkCh {
		for _, sink := range b.sinks {
			if err := sink.Write(ctx, entry); err != nil {
				b.logger.Error("sink write failed", "seq", entry.Seq, "error", err)
			}
		}
	}
}

// Close removes every subscriber, stops heartbeats, and drains the sink
// queue. Publishes after Close are dropped.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.mu.Lock()
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.done)
		close(sub.events)
	}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.SubscribersLive.Set(0)
	}

	if b.sinkCh != nil {
		close(b.sinkCh)
		b.sinkWG.Wait()
	}
	var firstErr error
	for _, sink := range b.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
