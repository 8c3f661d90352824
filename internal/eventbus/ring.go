package eventbus

import "sync"

// ring is a fixed-capacity FIFO of log entries. The oldest entry is evicted
// when a write lands on a full ring.
type ring struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	start    int
	size     int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = 1000
	}
	return &ring{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

func (r *ring) append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size < r.capacity {
		r.entries[(r.start+r.size)%r.capacity] = e
		r.size++
		return
	}
	r.entries[r.start] = e
	r.start = (r.start + 1) % r.capacity
}

// last returns up to n entries, oldest first.
func (r *ring) last(n int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > r.size {
		n = r.size
	}
	out := make([]Entry, 0, n)
	for i := r.size - n; i < r.size; i++ {
		out = append(out, r.entries[(r.start+i)%r.capacity])
	}
	return out
}

func (r *ring) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}
