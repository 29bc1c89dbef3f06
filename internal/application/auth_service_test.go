package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type authFixture struct {
	svc         *AuthService
	users       *userRepoStub
	revocations *revocationStoreStub
	now         *time.Time
}

func newAuthFixture() *authFixture {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f := &authFixture{
		users: &userRepoStub{users: []UserCredentials{
			{User: User{ID: "user-1", Name: "Maria", Email: "maria@example.com", Role: RoleCommon}, PasswordHash: "plain:segredo123"},
		}},
		revocations: &revocationStoreStub{},
		now:         &current,
	}
	clock := func() time.Time { return *f.now }
	f.svc = NewAuthService(f.users, f.revocations, tokenSignerStub{now: clock}, plainHasher{}, sequenceIDs("session"), clock, time.Hour)
	return f
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues sessions for valid credentials", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture()
		result, err := f.svc.Authenticate(context.Background(), AuthenticateParams{Email: " Maria@Example.com ", Password: "segredo123"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.User.ID != "user-1" || result.Session.ID != "session-1" {
			t.Fatalf("unexpected result: %#v", result)
		}
		if !result.Session.ExpiresAt.Equal(f.now.Add(time.Hour)) {
			t.Fatalf("expected one hour ttl, got %v", result.Session.ExpiresAt)
		}
		if result.Session.Token == "" {
			t.Fatalf("expected signed token")
		}
	})

	t.Run("does not distinguish unknown email from wrong password", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture()
		_, unknown := f.svc.Authenticate(context.Background(), AuthenticateParams{Email: "nobody@example.com", Password: "segredo123"})
		_, wrong := f.svc.Authenticate(context.Background(), AuthenticateParams{Email: "maria@example.com", Password: "errada"})
		if !errors.Is(unknown, ErrInvalidCredentials) || !errors.Is(wrong, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", unknown, wrong)
		}
		if unknown.Error() != wrong.Error() {
			t.Fatalf("expected identical errors, got %q and %q", unknown, wrong)
		}
	})

	t.Run("rejects empty credentials", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture()
		if _, err := f.svc.Authenticate(context.Background(), AuthenticateParams{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture()
		f.users.loadErr = errBoom
		if _, err := f.svc.Authenticate(context.Background(), AuthenticateParams{Email: "maria@example.com", Password: "segredo123"}); !errors.Is(err, errBoom) {
			t.Fatalf("expected repository error, got %v", err)
		}
	})
}

// countingHasher records how often a password is checked.
type countingHasher struct {
	plainHasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(hash, password string) error {
	h.verifies.Add(1)
	return h.plainHasher.Verify(hash, password)
}

func TestAuthService_AuthenticateVerifiesPasswordForUnknownEmail(t *testing.T) {
	t.Parallel()

	f := newAuthFixture()
	hasher := &countingHasher{}
	clock := func() time.Time { return *f.now }
	svc := NewAuthService(f.users, f.revocations, tokenSignerStub{now: clock}, hasher, sequenceIDs("session"), clock, time.Hour)
	ctx := context.Background()

	for _, email := range []string{"nobody@example.com", "ghost@example.com"} {
		if _, err := svc.Authenticate(ctx, AuthenticateParams{Email: email, Password: "segredo123"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %s, got %v", email, err)
		}
	}
	if got := hasher.verifies.Load(); got != 2 {
		t.Fatalf("expected a password check per unknown email, got %d", got)
	}

	if _, err := svc.Authenticate(ctx, AuthenticateParams{Email: "maria@example.com", Password: "errada"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if got := hasher.verifies.Load(); got != 3 {
		t.Fatalf("expected wrong password to be checked once, got %d total", got)
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	login := func(t *testing.T, f *authFixture) string {
		t.Helper()
		result, err := f.svc.Authenticate(context.Background(), AuthenticateParams{Email: "maria@example.com", Password: "segredo123"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		return result.Session.Token
	}

	t.Run("returns the principal for active sessions", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture()
		principal, err := f.svc.ValidateSession(context.Background(), login(t, f))
		if err != nil {
			t.Fatalf("ValidateSession failed: %v", err)
		}
		want := Principal{UserID: "user-1", Name: "Maria", Role: RoleCommon}
		if principal != want {
			t.Fatalf("expected %#v, got %#v", want, principal)
		}
	})

	t.Run("reflects role changes", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture()
		token := login(t, f)
		f.users.users[0].User.Role = RoleManager

		principal, err := f.svc.ValidateSession(context.Background(), token)
		if err != nil || principal.Role != RoleManager {
			t.Fatalf("expected manager role, got %#v, %v", principal, err)
		}
	})

	t.Run("rejects deleted users", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture()
		token := login(t, f)
		f.users.users = nil

		if _, err := f.svc.ValidateSession(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects expired sessions", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture()
		token := login(t, f)
		*f.now = f.now.Add(2 * time.Hour)

		if _, err := f.svc.ValidateSession(context.Background(), token); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("rejects revoked sessions", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture()
		token := login(t, f)
		if err := f.svc.RevokeSession(context.Background(), token); err != nil {
			t.Fatalf("RevokeSession failed: %v", err)
		}

		if _, err := f.svc.ValidateSession(context.Background(), token); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("rejects malformed tokens", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture()
		if _, err := f.svc.ValidateSession(context.Background(), "garbage"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if _, err := f.svc.ValidateSession(context.Background(), "  "); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_RevokeSessionPrunesExpiredEntries(t *testing.T) {
	t.Parallel()

	f := newAuthFixture()
	f.revocations.revoked = []RevokedSession{
		{SessionID: "old", ExpiresAt: f.now.Add(-time.Minute)},
		{SessionID: "live", ExpiresAt: f.now.Add(time.Minute)},
	}

	result, err := f.svc.Authenticate(context.Background(), AuthenticateParams{Email: "maria@example.com", Password: "segredo123"})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if err := f.svc.RevokeSession(context.Background(), result.Session.Token); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}

	ids := map[string]bool{}
	for _, r := range f.revocations.revoked {
		ids[r.SessionID] = true
	}
	if ids["old"] || !ids["live"] || !ids[result.Session.ID] || len(ids) != 2 {
		t.Fatalf("unexpected revocation list: %#v", f.revocations.revoked)
	}
}

func TestAuthService_RevokeExpiredSessionIsNoop(t *testing.T) {
	t.Parallel()

	f := newAuthFixture()
	result, err := f.svc.Authenticate(context.Background(), AuthenticateParams{Email: "maria@example.com", Password: "segredo123"})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	*f.now = f.now.Add(2 * time.Hour)

	if err := f.svc.RevokeSession(context.Background(), result.Session.Token); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(f.revocations.revoked) != 0 {
		t.Fatalf("expected nothing stored, got %#v", f.revocations.revoked)
	}
}

func TestAuthService_CurrentUser(t *testing.T) {
	t.Parallel()

	f := newAuthFixture()
	user, err := f.svc.CurrentUser(context.Background(), Principal{UserID: "user-1", Role: RoleCommon})
	if err != nil || user.Email != "maria@example.com" {
		t.Fatalf("CurrentUser returned %#v, %v", user, err)
	}
	if _, err := f.svc.CurrentUser(context.Background(), Principal{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
