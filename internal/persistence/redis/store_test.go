package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-scheduler/internal/persistence"
)

func setupTestStore(t *testing.T, prefix string) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := New(context.Background(), Options{Addr: mr.Addr(), Prefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func TestStore_LoadMissingKey(t *testing.T) {
	_, store := setupTestStore(t, "")

	_, err := store.Load(context.Background(), persistence.RoomsKey)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestStore_SaveUsesPrefix(t *testing.T) {
	mr, store := setupTestStore(t, "roomsched")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, persistence.BookingsKey, []byte(`[]`)))

	raw, err := mr.Get("roomsched:rs_bookings")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
	assert.Zero(t, mr.TTL("roomsched:rs_bookings"))

	value, err := store.Load(ctx, persistence.BookingsKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value))
}

func TestStore_WithCollections(t *testing.T) {
	_, store := setupTestStore(t, "test:")
	ctx := context.Background()
	collections := persistence.NewCollections(store)

	rooms, err := collections.LoadRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 3)

	rooms = rooms[:1]
	require.NoError(t, collections.SaveRooms(ctx, rooms))

	reloaded, err := collections.LoadRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, rooms, reloaded)
}

func TestNew_UnreachableServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}
