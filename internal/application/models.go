package application

import (
	"time"

	"github.com/example/room-scheduler/internal/scheduler"
)

// Role grants access to groups of operations.
type Role string

const (
	// RoleAdministrator has full access, including user management.
	RoleAdministrator Role = "admin"
	// RoleManager manages rooms and bookings.
	RoleManager Role = "sec"
	// RoleCommon only books rooms.
	RoleCommon Role = "common"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleManager, RoleCommon:
		return true
	}
	return false
}

// CanManageRooms reports whether the role may create, edit or delete rooms.
func (r Role) CanManageRooms() bool {
	return r == RoleAdministrator || r == RoleManager
}

// CanManageUsers reports whether the role may administer accounts.
func (r Role) CanManageUsers() bool {
	return r == RoleAdministrator
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Name   string
	Role   Role
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Location string
	Capacity int
	Notes    string
	Color    string
}

// Room represents a catalog entry for a physical meeting room.
type Room struct {
	ID       string
	Name     string
	Location string
	Capacity int
	Notes    string
	Color    string
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// BookingInput captures caller provided booking fields. An empty ID creates a new booking.
type BookingInput struct {
	ID            string
	RoomID        string
	Date          string
	StartTime     string
	EndTime       string
	RequesterName string
	Description   string
}

// Booking is a reservation of one room for a clock interval on one day.
type Booking struct {
	ID            string
	RoomID        string
	Date          string
	StartTime     string
	EndTime       string
	RequesterName string
	Description   string
	// CreatedAt is epoch milliseconds, set once when the booking is first saved.
	CreatedAt int64
}

// CreatedTime converts CreatedAt to a time value.
func (b Booking) CreatedTime() time.Time {
	return time.UnixMilli(b.CreatedAt)
}

func (b Booking) slot() scheduler.Booking {
	return scheduler.Booking{
		ID:        b.ID,
		RoomID:    b.RoomID,
		Date:      b.Date,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
	}
}

// SaveBookingParams wraps the data required to create or update a booking.
type SaveBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// ListBookingsParams narrows a booking listing. Empty fields do not filter.
type ListBookingsParams struct {
	Principal Principal
	Date      string
	RoomID    string
	// Query matches requester, description or room name, case-insensitively.
	Query string
}

// PlacedBooking is a booking positioned on the day calendar axis.
type PlacedBooking struct {
	Booking   Booking
	Placement scheduler.Placement
}

// RoomSchedule is one row of the day calendar.
type RoomSchedule struct {
	Room     Room
	Bookings []PlacedBooking
}

// DaySchedule is the day calendar: every room with its bookings placed on the business window.
type DaySchedule struct {
	Date      string
	Window    scheduler.Window
	HourMarks []string
	Rooms     []RoomSchedule
}

// AuditReport lists integrity problems found in stored bookings.
type AuditReport struct {
	Conflicts []scheduler.Conflict
	// OrphanedBookings reference rooms that no longer exist.
	OrphanedBookings []Booking
	// MalformedBookings have times that cannot be parsed.
	MalformedBookings []Booking
}

// Clean reports whether the audit found nothing.
func (r AuditReport) Clean() bool {
	return len(r.Conflicts) == 0 && len(r.OrphanedBookings) == 0 && len(r.MalformedBookings) == 0
}

// UserInput captures caller provided user fields. Password is plaintext and only ever hashed.
type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// User represents an account able to sign in.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user. An empty password keeps the current one.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// AuthenticateParams carries login credentials.
type AuthenticateParams struct {
	Email    string
	Password string
}

// Session describes an issued session token.
type Session struct {
	ID        string
	UserID    string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthenticateResult is returned by a successful login.
type AuthenticateResult struct {
	User    User
	Session Session
}

// SessionClaims is the content carried by a signed session token.
type SessionClaims struct {
	SessionID string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RevokedSession is an entry in the session revocation list.
type RevokedSession struct {
	SessionID string
	ExpiresAt time.Time
}
