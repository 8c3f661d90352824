// Package threat classifies monitored events against a pattern set and runs
// remediation workflows on a dedicated single-worker queue. One worker keeps
// a single incident's phases in order; parallel incident handling is
// deliberately traded away for that.
package threat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	dErrors "opsconsole/pkg/domain-errors"
	"opsconsole/pkg/platform/sentinel"
)

const remediationQueueSize = 256

// Publisher receives monitor log lines for the console stream.
type Publisher interface {
	Info(message string)
	Warn(message string)
	Error(message string)
}

// Detected is called once per matched event; wired to the metrics counter.
type Detected func()

type incident struct {
	text    string
	pattern string
}

// Monitor validates, records, and classifies security events.
type Monitor struct {
	patterns *PatternSet
	queue    chan incident
	pub      Publisher
	logger   *slog.Logger
	sleep    func(time.Duration)
	detected Detected

	// mu orders intake against shutdown: MonitorEvent holds the read lock
	// from the closed check through the queue send, Close takes the write
	// lock before closing the queue. A send can therefore never hit a
	// closed channel.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Monitor.
type Option func(*Monitor)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

func WithPublisher(pub Publisher) Option {
	return func(m *Monitor) { m.pub = pub }
}

// WithSleep replaces the inter-phase delay; tests pass a no-op.
func WithSleep(sleep func(time.Duration)) Option {
	return func(m *Monitor) { m.sleep = sleep }
}

func WithDetectedHook(hook Detected) Option {
	return func(m *Monitor) { m.detected = hook }
}

// New starts the remediation worker. patterns may be shared with the admin
// surface.
func New(patterns *PatternSet, opts ...Option) *Monitor {
	m := &Monitor{
		patterns: patterns,
		queue:    make(chan incident, remediationQueueSize),
		pub:      noopPublisher{},
		logger:   slog.Default(),
		sleep:    time.Sleep,
		detected: func() {},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.wg.Add(1)
	go m.runWorker()
	return m
}

// MonitorEvent records the event unconditionally, classifies it, and, on a
// match, schedules remediation. The caller returns as soon as the incident
// is queued; phases run on the worker.
func (m *Monitor) MonitorEvent(ctx context.Context, text string) error {
	if text == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "event text is required")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return dErrors.Wrap(dErrors.CodeInternal, "threat monitor is shut down", sentinel.ErrClosed)
	}

	m.pub.Info(fmt.Sprintf("security: monitoring event: %s", text))

	pattern, matched := m.patterns.Match(text)
	if !matched {
		m.pub.Info(fmt.Sprintf("security: event deemed secure: %s", text))
		return nil
	}

	m.detected()
	m.pub.Warn(fmt.Sprintf("security: threat detected (pattern %q): %s", pattern, text))

	select {
	case m.queue <- incident{text: text, pattern: pattern}:
	default:
		m.logger.ErrorContext(ctx, "remediation queue full, incident dropped",
			"pattern", pattern,
		)
		m.pub.Error(fmt.Sprintf("security: remediation queue full, incident dropped: %s", text))
	}
	return nil
}

// AddPattern extends the pattern set at runtime.
func (m *Monitor) AddPattern(pattern string) {
	m.patterns.Add(pattern)
	m.pub.Info(fmt.Sprintf("security: pattern added: %s", pattern))
}

// Patterns lists the active pattern set.
func (m *Monitor) Patterns() []string {
	return m.patterns.List()
}

func (m *Monitor) runWorker() {
	defer m.wg.Done()
	for inc := range m.queue {
		m.remediate(inc)
	}
}

// remediate runs the fixed phase sequence for one incident. All incidents
// share the one worker, so phases never interleave across incidents.
func (m *Monitor) remediate(inc incident) {
	m.pub.Warn(fmt.Sprintf("security: isolating affected resources for: %s", inc.text))
	m.sleep(120 * time.Millisecond)
	m.pub.Warn(fmt.Sprintf("security: quarantining for: %s", inc.text))
	m.sleep(80 * time.Millisecond)
	m.pub.Info(fmt.Sprintf("security: remediated: %s", inc.text))
}

// Close stops intake and drains the queue, abandoning it when ctx expires
// first.
func (m *Monitor) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.logger.Warn("remediation queue abandoned at shutdown", "pending", len(m.queue))
		return ctx.Err()
	}
}

type noopPublisher struct{}

func (noopPublisher) Info(string)  {}
func (noopPublisher) Warn(string)  {}
func (noopPublisher) Error(string) {}
