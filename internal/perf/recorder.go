// Package perf keeps the last observed duration per named operation,
// last-write-wins with no history.
package perf

import (
	"sync"
	"time"

	dErrors "opsconsole/pkg/domain-errors"
)

// Recorder is safe for concurrent use.
type Recorder struct {
	mu      sync.RWMutex
	samples map[string]time.Duration
}

func New() *Recorder {
	return &Recorder{samples: make(map[string]time.Duration)}
}

// Record stores the duration for an operation, overwriting any prior value.
// Negative durations are rejected.
func (r *Recorder) Record(operation string, d time.Duration) error {
	if operation == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "operation name is required")
	}
	if d < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "duration must not be negative")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[operation] = d
	return nil
}

// Snapshot returns operation -> last duration in milliseconds.
func (r *Recorder) Snapshot() map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int64, len(r.samples))
	for op, d := range r.samples {
		out[op] = d.Milliseconds()
	}
	return out
}
