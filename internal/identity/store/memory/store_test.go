package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/internal/identity"
	"opsconsole/pkg/platform/sentinel"
)

func TestSaveAndFind(t *testing.T) {
	ctx := context.Background()
	store := New()

	rec := identity.Record{UserID: "u1", KeyBinding: []byte("binding"), CurrentCode: "123456"}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Find(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestFindMissing(t *testing.T) {
	store := New()
	_, err := store.Find(context.Background(), "ghost")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.Save(ctx, identity.Record{UserID: "u1", CurrentCode: "111111"}))
	require.NoError(t, store.Save(ctx, identity.Record{UserID: "u1", CurrentCode: "222222"}))

	got, err := store.Find(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "222222", got.CurrentCode)
}

func TestListSorted(t *testing.T) {
	ctx := context.Background()
	store := New()

	for _, id := range []string{"charlie", "alice", "bob"} {
		require.NoError(t, store.Save(ctx, identity.Record{UserID: id}))
	}

	users, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "charlie"}, users)
}
