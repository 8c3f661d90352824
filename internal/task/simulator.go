// Package task simulates running a named workload down one of two cost
// profiles. Results are synthetic (a hash of the name mixed with
// randomness); what matters to the console is the latency band and the
// last-outcome record.
package task

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"log/slog"
	randv2 "math/rand/v2"
	"sync"
	"time"

	dErrors "opsconsole/pkg/domain-errors"
)

// Profile names the cost/latency band a run took.
type Profile string

const (
	// ProfileFast is the cheap deterministic-ish path (20-60ms band).
	ProfileFast Profile = "fast"
	// ProfileSlow is the noisy probabilistic path (60-160ms band).
	ProfileSlow Profile = "slow"
)

// Outcome is the last recorded result for a task name.
type Outcome struct {
	Task    string  `json:"task"`
	Profile Profile `json:"profile"`
	Result  uint32  `json:"result"`
}

// RandSource drives profile selection and result jitter. Injectable so tests
// can replay a fixed sequence.
type RandSource interface {
	IntN(n int) int
}

// Publisher receives simulator log lines for the console stream.
type Publisher interface {
	Info(message string)
}

// Simulator runs tasks and retains the last outcome per task name,
// last-write-wins with no history.
type Simulator struct {
	mu       sync.RWMutex
	outcomes map[string]Outcome

	rand   RandSource
	sleep  func(time.Duration)
	pub    Publisher
	logger *slog.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) { s.logger = logger }
}

func WithPublisher(pub Publisher) Option {
	return func(s *Simulator) { s.pub = pub }
}

func WithRandSource(r RandSource) Option {
	return func(s *Simulator) { s.rand = r }
}

// WithSleep replaces the simulated latency; tests pass a no-op.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Simulator) { s.sleep = sleep }
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		outcomes: make(map[string]Outcome),
		rand:     newSeededSource(),
		sleep:    time.Sleep,
		pub:      noopPublisher{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run simulates the named task down a randomly chosen profile and records
// the outcome, overwriting any prior one for the same name.
func (s *Simulator) Run(ctx context.Context, name string) (Outcome, error) {
	if name == "" {
		return Outcome{}, dErrors.New(dErrors.CodeInvalidInput, "task name is required")
	}

	start := time.Now()
	var out Outcome
	if s.rand.IntN(2) == 0 {
		out = s.runSlow(name)
	} else {
		out = s.runFast(name)
	}

	s.mu.Lock()
	s.outcomes[name] = out
	s.mu.Unlock()

	s.pub.Info(fmt.Sprintf("task: %s completed in %dms (profile=%s, result=%d)",
		name, time.Since(start).Milliseconds(), out.Profile, out.Result))
	s.logger.InfoContext(ctx, "task simulated",
		"task", name, "profile", string(out.Profile), "result", out.Result)
	return out, nil
}

// runSlow models the noisy probabilistic path.
func (s *Simulator) runSlow(name string) Outcome {
	s.sleep(time.Duration(60+s.rand.IntN(100)) * time.Millisecond)
	return Outcome{
		Task:    name,
		Profile: ProfileSlow,
		Result:  nameHash(name) ^ uint32(s.rand.IntN(1<<31)),
	}
}

// runFast models the cheap path with a little jitter.
func (s *Simulator) runFast(name string) Outcome {
	s.sleep(time.Duration(20+s.rand.IntN(40)) * time.Millisecond)
	return Outcome{
		Task:    name,
		Profile: ProfileFast,
		Result:  nameHash(name) + uint32(s.rand.IntN(1000)),
	}
}

// LastResult returns the recorded outcome for a task name, if any.
func (s *Simulator) LastResult(name string) (Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, ok := s.outcomes[name]
	return out, ok
}

func nameHash(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}

type noopPublisher struct{}

func (noopPublisher) Info(string) {}

func newSeededSource() RandSource {
	var seed [32]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		binary.LittleEndian.PutUint64(seed[:8], uint64(time.Now().UnixNano()))
	}
	return randv2.New(randv2.NewChaCha8(seed))
}
