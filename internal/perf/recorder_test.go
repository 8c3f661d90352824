package perf

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "opsconsole/pkg/domain-errors"
)

func TestRecordAndSnapshot(t *testing.T) {
	r := New()
	require.NoError(t, r.Record("process-task", 150*time.Millisecond))
	require.NoError(t, r.Record("register-user", 3*time.Millisecond))

	assert.Equal(t, map[string]int64{
		"process-task":  150,
		"register-user": 3,
	}, r.Snapshot())
}

func TestRecordLastWriteWins(t *testing.T) {
	r := New()
	require.NoError(t, r.Record("process-task", 150*time.Millisecond))
	require.NoError(t, r.Record("process-task", 42*time.Millisecond))

	assert.Equal(t, int64(42), r.Snapshot()["process-task"])
}

func TestRecordValidation(t *testing.T) {
	r := New()

	err := r.Record("", time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInvalidInput, dErrors.CodeOf(err))

	err = r.Record("process-task", -time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInvalidInput, dErrors.CodeOf(err))

	assert.Empty(t, r.Snapshot())
}

func TestSnapshotIsCopy(t *testing.T) {
	r := New()
	require.NoError(t, r.Record("process-task", 10*time.Millisecond))

	snap := r.Snapshot()
	snap["process-task"] = 999

	assert.Equal(t, int64(10), r.Snapshot()["process-task"])
}

func TestRecordConcurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = r.Record("op", time.Duration(j)*time.Millisecond)
				_ = r.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Contains(t, r.Snapshot(), "op")
}
