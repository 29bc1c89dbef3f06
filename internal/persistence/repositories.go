package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Keys under which each collection is stored.
const (
	RoomsKey           = "rs_rooms"
	BookingsKey        = "rs_bookings"
	UsersKey           = "rs_users"
	RevokedSessionsKey = "rs_revoked_sessions"
)

// KeyValueStore is the storage contract every backend implements.
//
// Load returns ErrNotFound when the key has never been saved. Save replaces the whole value.
type KeyValueStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Collections encodes each domain collection as one JSON array under its key.
type Collections struct {
	store     KeyValueStore
	seedRooms []Room

	seedMu sync.Mutex
}

// NewCollections wraps store, seeding DefaultRooms the first time rooms are loaded.
func NewCollections(store KeyValueStore) *Collections {
	return NewCollectionsWithSeed(store, DefaultRooms())
}

// NewCollectionsWithSeed wraps store with a custom room seed. A nil seed disables seeding.
func NewCollectionsWithSeed(store KeyValueStore, seed []Room) *Collections {
	return &Collections{store: store, seedRooms: seed}
}

// LoadRooms returns the room catalog, writing the seed catalog when none was stored yet.
func (c *Collections) LoadRooms(ctx context.Context) ([]Room, error) {
	rooms, err := loadCollection[Room](ctx, c.store, RoomsKey)
	if err == nil {
		return rooms, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if c.seedRooms == nil {
		return []Room{}, nil
	}

	c.seedMu.Lock()
	defer c.seedMu.Unlock()

	// another caller may have seeded while we waited
	rooms, err = loadCollection[Room](ctx, c.store, RoomsKey)
	if err == nil {
		return rooms, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	seeded := make([]Room, len(c.seedRooms))
	copy(seeded, c.seedRooms)
	if err := saveCollection(ctx, c.store, RoomsKey, seeded); err != nil {
		return nil, fmt.Errorf("seed rooms: %w", err)
	}
	return seeded, nil
}

// SaveRooms replaces the stored room catalog.
func (c *Collections) SaveRooms(ctx context.Context, rooms []Room) error {
	return saveCollection(ctx, c.store, RoomsKey, rooms)
}

// LoadBookings returns every stored booking, or an empty slice for a fresh store.
func (c *Collections) LoadBookings(ctx context.Context) ([]Booking, error) {
	return loadOrEmpty[Booking](ctx, c.store, BookingsKey)
}

// SaveBookings replaces the stored booking collection.
func (c *Collections) SaveBookings(ctx context.Context, bookings []Booking) error {
	return saveCollection(ctx, c.store, BookingsKey, bookings)
}

// LoadUsers returns every stored account.
func (c *Collections) LoadUsers(ctx context.Context) ([]User, error) {
	return loadOrEmpty[User](ctx, c.store, UsersKey)
}

// SaveUsers replaces the stored account collection.
func (c *Collections) SaveUsers(ctx context.Context, users []User) error {
	return saveCollection(ctx, c.store, UsersKey, users)
}

// LoadRevokedSessions returns the session revocation list.
func (c *Collections) LoadRevokedSessions(ctx context.Context) ([]RevokedSession, error) {
	return loadOrEmpty[RevokedSession](ctx, c.store, RevokedSessionsKey)
}

// SaveRevokedSessions replaces the session revocation list.
func (c *Collections) SaveRevokedSessions(ctx context.Context, sessions []RevokedSession) error {
	return saveCollection(ctx, c.store, RevokedSessionsKey, sessions)
}

func loadOrEmpty[T any](ctx context.Context, store KeyValueStore, key string) ([]T, error) {
	items, err := loadCollection[T](ctx, store, key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	return items, err
}

func loadCollection[T any](ctx context.Context, store KeyValueStore, key string) ([]T, error) {
	if store == nil {
		return nil, fmt.Errorf("load %s: store not configured", key)
	}

	raw, err := store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", key, ErrCorruptRecord, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func saveCollection[T any](ctx context.Context, store KeyValueStore, key string, items []T) error {
	if store == nil {
		return fmt.Errorf("save %s: store not configured", key)
	}
	if items == nil {
		items = []T{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
