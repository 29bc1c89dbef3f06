package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

type bookingRepoStub struct {
	bookings  []Booking
	loadErr   error
	saveErr   error
	saveCalls int
}

func (r *bookingRepoStub) LoadBookings(ctx context.Context) ([]Booking, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return slices.Clone(r.bookings), nil
}

func (r *bookingRepoStub) SaveBookings(ctx context.Context, bookings []Booking) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.bookings = slices.Clone(bookings)
	return nil
}

type roomRepoStub struct {
	rooms     []Room
	loadErr   error
	saveErr   error
	saveCalls int
}

func (r *roomRepoStub) LoadRooms(ctx context.Context) ([]Room, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return slices.Clone(r.rooms), nil
}

func (r *roomRepoStub) SaveRooms(ctx context.Context, rooms []Room) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.rooms = slices.Clone(rooms)
	return nil
}

type userRepoStub struct {
	users     []UserCredentials
	loadErr   error
	saveErr   error
	saveCalls int
}

func (r *userRepoStub) LoadUsers(ctx context.Context) ([]UserCredentials, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return slices.Clone(r.users), nil
}

func (r *userRepoStub) SaveUsers(ctx context.Context, users []UserCredentials) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.users = slices.Clone(users)
	return nil
}

type revocationStoreStub struct {
	revoked []RevokedSession
	loadErr error
	saveErr error
}

func (r *revocationStoreStub) LoadRevokedSessions(ctx context.Context) ([]RevokedSession, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return slices.Clone(r.revoked), nil
}

func (r *revocationStoreStub) SaveRevokedSessions(ctx context.Context, sessions []RevokedSession) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.revoked = slices.Clone(sessions)
	return nil
}

// tokenSignerStub encodes claims as "sessionID|userID|expiresUnix" and checks expiry against now.
type tokenSignerStub struct {
	now func() time.Time
}

func (s tokenSignerStub) Sign(claims SessionClaims) (string, error) {
	return fmt.Sprintf("%s|%s|%d", claims.SessionID, claims.UserID, claims.ExpiresAt.Unix()), nil
}

func (s tokenSignerStub) Parse(token string) (SessionClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 {
		return SessionClaims{}, ErrUnauthorized
	}
	var expires int64
	if _, err := fmt.Sscanf(parts[2], "%d", &expires); err != nil {
		return SessionClaims{}, ErrUnauthorized
	}
	claims := SessionClaims{SessionID: parts[0], UserID: parts[1], ExpiresAt: time.Unix(expires, 0)}
	if !claims.ExpiresAt.After(s.now()) {
		return SessionClaims{}, ErrSessionExpired
	}
	return claims, nil
}

// plainHasher stores passwords with a marker prefix so tests avoid argon2 cost.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Verify(hash, password string) error {
	if hash != "plain:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

func sequenceIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

var errBoom = errors.New("boom")

var (
	adminPrincipal   = Principal{UserID: "admin-1", Name: "Admin", Role: RoleAdministrator}
	managerPrincipal = Principal{UserID: "sec-1", Name: "Secretaria", Role: RoleManager}
	commonPrincipal  = Principal{UserID: "user-1", Name: "Maria", Role: RoleCommon}
)
