// Package testfixtures builds deterministic services, clocks and records for tests.
package testfixtures

import (
	"github.com/example/room-scheduler/internal/application"
)

// Password is the plaintext password of every fixture account.
const Password = "senha-segura"

// FastArgon2idParams keep hashing cheap in tests.
var FastArgon2idParams = application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

// Roles lists every role in privilege order.
var Roles = []application.Role{application.RoleAdministrator, application.RoleManager, application.RoleCommon}

// UserInput returns the fixture account for role: "<role>@example.com" with Password.
func UserInput(role application.Role) application.UserInput {
	return application.UserInput{
		Name:     "Usuário " + string(role),
		Email:    string(role) + "@example.com",
		Password: Password,
		Role:     role,
	}
}

// Principal returns a principal for role that does not need a stored account.
func Principal(role application.Role) application.Principal {
	return application.Principal{UserID: "user-" + string(role), Name: "Usuário " + string(role), Role: role}
}

// BookingOption customizes a booking fixture.
type BookingOption func(*application.BookingInput)

// At places the booking on date from start to end.
func At(date, start, end string) BookingOption {
	return func(in *application.BookingInput) {
		in.Date, in.StartTime, in.EndTime = date, start, end
	}
}

// InRoom books roomID.
func InRoom(roomID string) BookingOption {
	return func(in *application.BookingInput) { in.RoomID = roomID }
}

// RequestedBy sets the requester name.
func RequestedBy(name string) BookingOption {
	return func(in *application.BookingInput) { in.RequesterName = name }
}

// WithDescription sets the free-text note.
func WithDescription(description string) BookingOption {
	return func(in *application.BookingInput) { in.Description = description }
}

// Replacing turns the fixture into an update of bookingID.
func Replacing(bookingID string) BookingOption {
	return func(in *application.BookingInput) { in.ID = bookingID }
}

// BookingInput defaults to room "1" on ReferenceDate from 09:00 to 10:00 for "Ana".
func BookingInput(opts ...BookingOption) application.BookingInput {
	in := application.BookingInput{
		RoomID:        "1",
		Date:          ReferenceDate,
		StartTime:     "09:00",
		EndTime:       "10:00",
		RequesterName: "Ana",
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}
