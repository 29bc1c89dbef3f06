package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/persistence/memory"
)

func TestRepositories_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := NewFromStore(store)

	rooms, err := repos.LoadRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "Sala Copacabana", rooms[0].Name)

	booking := application.Booking{
		ID: "b1", RoomID: "1", Date: "2024-06-01", StartTime: "09:00", EndTime: "10:00",
		RequesterName: "Ana", Description: "Reunião", CreatedAt: 1717232400000,
	}
	require.NoError(t, repos.SaveBookings(ctx, []application.Booking{booking}))
	bookings, err := repos.LoadBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []application.Booking{booking}, bookings)

	creds := application.UserCredentials{
		User:         application.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: application.RoleManager},
		PasswordHash: "$argon2id$...",
	}
	require.NoError(t, repos.SaveUsers(ctx, []application.UserCredentials{creds}))
	users, err := repos.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []application.UserCredentials{creds}, users)

	expires := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repos.SaveRevokedSessions(ctx, []application.RevokedSession{{SessionID: "s1", ExpiresAt: expires}}))
	revoked, err := repos.LoadRevokedSessions(ctx)
	require.NoError(t, err)
	require.Len(t, revoked, 1)
	assert.True(t, revoked[0].ExpiresAt.Equal(expires))
}

func TestRepositories_StoredShape(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := New(persistence.NewCollectionsWithSeed(store, nil))

	require.NoError(t, repos.SaveUsers(ctx, []application.UserCredentials{{
		User:         application.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: application.RoleCommon},
		PasswordHash: "hash",
	}}))

	raw, err := store.Load(ctx, persistence.UsersKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"u1","name":"Ana","email":"ana@example.com","passwordHash":"hash","role":"common"}]`, string(raw))

	rooms, err := repos.LoadRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
