package client

// Session is the result of a login.
type Session struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      User   `json:"user"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
	Notes    string `json:"notes,omitempty"`
	Color    string `json:"color"`
}

type Booking struct {
	ID            string `json:"id,omitempty"`
	RoomID        string `json:"room_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	RequesterName string `json:"requester_name"`
	Description   string `json:"description,omitempty"`
	CreatedAt     int64  `json:"created_at,omitempty"`
}

// BookingFilter narrows ListBookings. Empty fields do not filter.
type BookingFilter struct {
	Date   string
	RoomID string
	Query  string
}

type DaySchedule struct {
	Date      string         `json:"date"`
	StartHour int            `json:"start_hour"`
	EndHour   int            `json:"end_hour"`
	HourMarks []string       `json:"hour_marks"`
	Rooms     []RoomSchedule `json:"rooms"`
}

type RoomSchedule struct {
	Room     Room            `json:"room"`
	Bookings []PlacedBooking `json:"bookings"`
}

// PlacedBooking positions a booking on the day window; Offset and Width are fractions of it.
type PlacedBooking struct {
	Booking Booking `json:"booking"`
	Offset  float64 `json:"offset"`
	Width   float64 `json:"width"`
}

type Conflict struct {
	BookingID     string `json:"booking_id"`
	WithBookingID string `json:"with_booking_id"`
	RoomID        string `json:"room_id"`
	Date          string `json:"date"`
}

type AuditReport struct {
	Clean             bool       `json:"clean"`
	Conflicts         []Conflict `json:"conflicts"`
	OrphanedBookings  []Booking  `json:"orphaned_bookings"`
	MalformedBookings []Booking  `json:"malformed_bookings"`
}
