package eventbus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BusSuite struct {
	suite.Suite
	bus *Bus
}

func TestBusSuite(t *testing.T) {
	suite.Run(t, new(BusSuite))
}

func (s *BusSuite) SetupTest() {
	// Heartbeat long enough to stay out of the way unless a test wants it.
	s.bus = New(16, WithHeartbeatInterval(time.Hour), WithBufferSize(8))
}

func (s *BusSuite) TearDownTest() {
	_ = s.bus.Close()
}

func (s *BusSuite) TestSubscribeReceivesConnectedFirst() {
	sub := s.bus.Subscribe()
	defer sub.Close()

	ev := s.receive(sub)
	s.Equal(EventConnected, ev.Type)
	s.Equal(sub.ID, ev.Data["clientId"])
}

func (s *BusSuite) TestPublishOrderPerSubscriber() {
	sub := s.bus.Subscribe()
	defer sub.Close()
	s.Equal(EventConnected, s.receive(sub).Type)

	const n = 5
	for i := 1; i <= n; i++ {
		s.bus.Info(fmt.Sprintf("entry %d", i))
	}

	var lastSeq uint64
	for i := 1; i <= n; i++ {
		ev := s.receive(sub)
		s.Equal(EventLog, ev.Type)
		s.Greater(ev.Seq, lastSeq, "events must arrive in publish order")
		lastSeq = ev.Seq
	}
}

func (s *BusSuite) TestRingCapacityProperty() {
	bus := New(4, WithHeartbeatInterval(time.Hour))
	defer bus.Close()

	for i := 1; i <= 5; i++ {
		bus.Info(fmt.Sprintf("entry %d", i))
	}

	history := bus.RecentHistory(0)
	s.Require().Len(history, 4)
	s.Equal("entry 2", history[0].Message, "oldest entry evicted after capacity+1 publishes")
	s.Equal("entry 5", history[3].Message, "newest entry present")
}

func (s *BusSuite) TestStalledSubscriberIsRemovedOthersUnaffected() {
	bus := New(64, WithHeartbeatInterval(time.Hour), WithBufferSize(2))
	defer bus.Close()

	stalled := bus.Subscribe() // never drained; fills up after two deliveries
	healthy := bus.Subscribe()
	defer healthy.Close()
	s.Equal(EventConnected, s.receive(healthy).Type)

	// connected + "first" fill the stalled buffer; "second" overflows it.
	bus.Info("first")
	s.Equal("first", s.receive(healthy).Message)
	bus.Info("second")
	s.Equal("second", s.receive(healthy).Message)

	s.Eventually(func() bool {
		return bus.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond, "stalled subscriber must be removed")

	// The stalled subscriber's channel ends up closed by the bus.
	s.Eventually(func() bool {
		for {
			select {
			case _, open := <-stalled.Events:
				if !open {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond)

	// Remaining subscriber still gets deliveries.
	bus.Info("third")
	s.Equal("third", s.receive(healthy).Message)
}

func (s *BusSuite) TestUnsubscribeIdempotent() {
	sub := s.bus.Subscribe()
	sub.Close()
	sub.Close()
	s.bus.Unsubscribe(sub.ID)
	s.Equal(0, s.bus.SubscriberCount())

	// Publishing after removal must not panic or error.
	s.bus.Info("still fine")
}

func (s *BusSuite) TestHeartbeat() {
	bus := New(16, WithHeartbeatInterval(20*time.Millisecond), WithBufferSize(8))
	defer bus.Close()

	sub := bus.Subscribe()
	defer sub.Close()
	s.Equal(EventConnected, s.receive(sub).Type)

	ev := s.receive(sub)
	s.Equal(EventHeartbeat, ev.Type)
	s.False(ev.Time.IsZero())
}

func (s *BusSuite) TestConcurrentPublishAndUnsubscribe() {
	var wg sync.WaitGroup
	subs := make([]*Subscription, 8)
	for i := range subs {
		subs[i] = s.bus.Subscribe()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.bus.Info("concurrent entry")
		}
	}()
	go func() {
		defer wg.Done()
		for _, sub := range subs {
			sub.Close()
		}
	}()
	wg.Wait()

	s.Equal(0, s.bus.SubscriberCount())
}

func (s *BusSuite) TestRecentHistoryDoesNotDisturbSubscribers() {
	sub := s.bus.Subscribe()
	defer sub.Close()
	s.Equal(EventConnected, s.receive(sub).Type)

	s.bus.Warn("observed")
	_ = s.bus.RecentHistory(5)

	ev := s.receive(sub)
	s.Equal(LevelWarn, ev.Level)
	s.Equal("observed", ev.Message)
}

func (s *BusSuite) receive(sub *Subscription) Event {
	select {
	case ev, open := <-sub.Events:
		s.Require().True(open, "subscription closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for event")
		return Event{}
	}
}

// recordingSink captures entries for assertions.
type recordingSink struct {
	mu      sync.Mutex
	entries []Entry
	closed  bool
}

func (r *recordingSink) Write(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingSink) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func TestBusFeedsSinks(t *testing.T) {
	sink := &recordingSink{}
	bus := New(16, WithHeartbeatInterval(time.Hour), WithSinks(sink))

	bus.Info("one")
	bus.Error("two")

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}

	deadline := time.Now().Add(time.Second)
	for sink.len() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require(sink.len() == 2, "sink must receive every published entry")

	require(bus.Close() == nil, "close must succeed")
	require(sink.closed, "close must propagate to sinks")
}
