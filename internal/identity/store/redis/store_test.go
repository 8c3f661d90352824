package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/internal/identity"
	"opsconsole/pkg/platform/sentinel"
)

// A client pointed at a closed port fails every command with a dial error,
// which the store must surface as sentinel.ErrUnavailable.
func TestStoreReportsUnreachableBackend(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	store := New(client)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := store.Find(ctx, "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	err = store.Save(ctx, identity.Record{UserID: "user-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	_, err = store.List(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}
