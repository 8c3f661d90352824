package eventbus

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingEviction(t *testing.T) {
	r := newRing(3)
	for i := 1; i <= 4; i++ {
		r.append(Entry{Seq: uint64(i), Message: fmt.Sprintf("m%d", i)})
	}

	entries := r.last(0)
	require.Len(t, entries, 3, "ring must never exceed capacity")
	assert.Equal(t, 3, r.len())
	assert.Equal(t, uint64(2), entries[0].Seq, "oldest entry evicted")
	assert.Equal(t, uint64(4), entries[2].Seq, "newest entry present")
}

func TestRingLastN(t *testing.T) {
	r := newRing(10)
	for i := 1; i <= 5; i++ {
		r.append(Entry{Seq: uint64(i)})
	}

	entries := r.last(2)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(4), entries[0].Seq)
	assert.Equal(t, uint64(5), entries[1].Seq)

	assert.Len(t, r.last(100), 5, "n beyond size returns everything")
	assert.Len(t, r.last(-1), 5, "non-positive n returns everything")
}

func TestRingDefaultCapacity(t *testing.T) {
	r := newRing(0)
	assert.Equal(t, 1000, r.capacity)
	assert.Equal(t, 0, r.len())
}
