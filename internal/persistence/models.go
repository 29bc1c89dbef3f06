package persistence

// Room is the stored shape of a meeting room catalog entry.
type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
	Notes    string `json:"notes,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Booking is the stored shape of a room reservation. CreatedAt is epoch milliseconds.
type Booking struct {
	ID            string `json:"id"`
	RoomID        string `json:"roomId"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	RequesterName string `json:"requesterName"`
	Description   string `json:"description"`
	CreatedAt     int64  `json:"createdAt"`
}

// User is the stored shape of an account. PasswordHash holds an encoded argon2id hash.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
}

// RevokedSession records a signed session that must be rejected until it expires.
type RevokedSession struct {
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expiresAt"`
}
