// Package adapter exposes persisted collections through the application repository interfaces.
package adapter

import (
	"context"
	"time"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/persistence"
)

// Repositories implements every application repository on top of one set of collections.
type Repositories struct {
	collections *persistence.Collections
}

var (
	_ application.BookingRepository = (*Repositories)(nil)
	_ application.RoomRepository    = (*Repositories)(nil)
	_ application.UserRepository    = (*Repositories)(nil)
	_ application.RevocationStore   = (*Repositories)(nil)
)

// New wraps collections.
func New(collections *persistence.Collections) *Repositories {
	return &Repositories{collections: collections}
}

// NewFromStore wraps a key-value store with the default room seed.
func NewFromStore(store persistence.KeyValueStore) *Repositories {
	return New(persistence.NewCollections(store))
}

func (r *Repositories) LoadBookings(ctx context.Context) ([]application.Booking, error) {
	models, err := r.collections.LoadBookings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Booking, len(models))
	for i, model := range models {
		out[i] = toApplicationBooking(model)
	}
	return out, nil
}

func (r *Repositories) SaveBookings(ctx context.Context, bookings []application.Booking) error {
	models := make([]persistence.Booking, len(bookings))
	for i, booking := range bookings {
		models[i] = toPersistenceBooking(booking)
	}
	return r.collections.SaveBookings(ctx, models)
}

func (r *Repositories) LoadRooms(ctx context.Context) ([]application.Room, error) {
	models, err := r.collections.LoadRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Room, len(models))
	for i, model := range models {
		out[i] = toApplicationRoom(model)
	}
	return out, nil
}

func (r *Repositories) SaveRooms(ctx context.Context, rooms []application.Room) error {
	models := make([]persistence.Room, len(rooms))
	for i, room := range rooms {
		models[i] = toPersistenceRoom(room)
	}
	return r.collections.SaveRooms(ctx, models)
}

func (r *Repositories) LoadUsers(ctx context.Context) ([]application.UserCredentials, error) {
	models, err := r.collections.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.UserCredentials, len(models))
	for i, model := range models {
		out[i] = application.UserCredentials{User: toApplicationUser(model), PasswordHash: model.PasswordHash}
	}
	return out, nil
}

func (r *Repositories) SaveUsers(ctx context.Context, users []application.UserCredentials) error {
	models := make([]persistence.User, len(users))
	for i, user := range users {
		models[i] = toPersistenceUser(user.User, user.PasswordHash)
	}
	return r.collections.SaveUsers(ctx, models)
}

func (r *Repositories) LoadRevokedSessions(ctx context.Context) ([]application.RevokedSession, error) {
	models, err := r.collections.LoadRevokedSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.RevokedSession, len(models))
	for i, model := range models {
		out[i] = application.RevokedSession{SessionID: model.ID, ExpiresAt: time.UnixMilli(model.ExpiresAt).UTC()}
	}
	return out, nil
}

func (r *Repositories) SaveRevokedSessions(ctx context.Context, sessions []application.RevokedSession) error {
	models := make([]persistence.RevokedSession, len(sessions))
	for i, session := range sessions {
		models[i] = persistence.RevokedSession{ID: session.SessionID, ExpiresAt: session.ExpiresAt.UnixMilli()}
	}
	return r.collections.SaveRevokedSessions(ctx, models)
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:            model.ID,
		RoomID:        model.RoomID,
		Date:          model.Date,
		StartTime:     model.StartTime,
		EndTime:       model.EndTime,
		RequesterName: model.RequesterName,
		Description:   model.Description,
		CreatedAt:     model.CreatedAt,
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:            booking.ID,
		RoomID:        booking.RoomID,
		Date:          booking.Date,
		StartTime:     booking.StartTime,
		EndTime:       booking.EndTime,
		RequesterName: booking.RequesterName,
		Description:   booking.Description,
		CreatedAt:     booking.CreatedAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:       model.ID,
		Name:     model.Name,
		Location: model.Location,
		Capacity: model.Capacity,
		Notes:    model.Notes,
		Color:    model.Color,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:       room.ID,
		Name:     room.Name,
		Location: room.Location,
		Capacity: room.Capacity,
		Notes:    room.Notes,
		Color:    room.Color,
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:    model.ID,
		Name:  model.Name,
		Email: model.Email,
		Role:  application.Role(model.Role),
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: passwordHash,
		Role:         string(user.Role),
	}
}
