package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// TokenSigner issues and verifies signed session tokens.
//
// Parse returns ErrSessionExpired for well-formed tokens past their expiry and
// ErrUnauthorized for anything it cannot verify.
type TokenSigner interface {
	Sign(claims SessionClaims) (string, error)
	Parse(token string) (SessionClaims, error)
}

// RevocationStore persists the ids of sessions that were logged out before expiring.
type RevocationStore interface {
	LoadRevokedSessions(ctx context.Context) ([]RevokedSession, error)
	SaveRevokedSessions(ctx context.Context, sessions []RevokedSession) error
}

// AuthService coordinates login, session validation and logout.
type AuthService struct {
	users       UserRepository
	revocations RevocationStore
	signer      TokenSigner
	hasher      PasswordHasher
	idGenerator func() string
	now         func() time.Time
	sessionTTL  time.Duration
	logger      *slog.Logger

	mu sync.Mutex

	// dummyHash stands in for the stored hash when the email is unknown.
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users UserRepository, revocations RevocationStore, signer TokenSigner, hasher PasswordHasher, idGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(users, revocations, signer, hasher, idGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users UserRepository, revocations RevocationStore, signer TokenSigner, hasher PasswordHasher, idGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if hasher == nil {
		hasher = NewArgon2idHasher(DefaultArgon2idParams)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:       users,
		revocations: revocations,
		signer:      signer,
		hasher:      hasher,
		idGenerator: idGenerator,
		now:         now,
		sessionTTL:  sessionTTL,
		logger:      defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token. Unknown emails and
// wrong passwords produce the same ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil || s.signer == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "Authenticate")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var users []UserCredentials
	users, err = s.users.LoadUsers(ctx)
	if err != nil {
		err = fmt.Errorf("load users: %w", err)
		return
	}

	var creds *UserCredentials
	for i := range users {
		if strings.EqualFold(users[i].User.Email, email) {
			creds = &users[i]
			break
		}
	}
	if creds == nil {
		_ = s.hasher.Verify(s.unknownUserHash(), params.Password)
		err = ErrInvalidCredentials
		return
	}
	if vErr := s.hasher.Verify(creds.PasswordHash, params.Password); vErr != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	claims := SessionClaims{
		SessionID: s.idGenerator(),
		UserID:    creds.User.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if claims.SessionID == "" {
		err = fmt.Errorf("id generator returned an empty id")
		return
	}

	var token string
	token, err = s.signer.Sign(claims)
	if err != nil {
		err = fmt.Errorf("sign session: %w", err)
		return
	}

	result = AuthenticateResult{
		User: creds.User,
		Session: Session{
			ID:        claims.SessionID,
			UserID:    claims.UserID,
			Token:     token,
			IssuedAt:  claims.IssuedAt,
			ExpiresAt: claims.ExpiresAt,
		},
	}
	return
}

func (s *AuthService) unknownUserHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("unknown-user-placeholder")
		if err != nil {
			s.logger.Warn("failed to prepare placeholder password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// ValidateSession verifies that the provided token corresponds to an active session and returns its principal.
// The user is reloaded so role changes and deletions apply to existing sessions.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil || s.signer == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("principal_id", principal.UserID).DebugContext(ctx, "session validated")
	}()

	if trimmed == "" {
		err = ErrInvalidCredentials
		return
	}

	var claims SessionClaims
	claims, err = s.signer.Parse(trimmed)
	if err != nil {
		return
	}

	var revoked bool
	revoked, err = s.isRevoked(ctx, claims.SessionID)
	if err != nil {
		return
	}
	if revoked {
		err = ErrSessionRevoked
		return
	}

	var users []UserCredentials
	users, err = s.users.LoadUsers(ctx)
	if err != nil {
		err = fmt.Errorf("load users: %w", err)
		return
	}
	for _, u := range users {
		if u.User.ID == claims.UserID {
			principal = Principal{UserID: u.User.ID, Name: u.User.Name, Role: u.User.Role}
			return
		}
	}

	err = ErrUnauthorized
	return
}

// CurrentUser returns the account behind principal.
func (s *AuthService) CurrentUser(ctx context.Context, principal Principal) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("AuthService is nil")
	}
	if !principal.Authenticated() {
		return User{}, ErrUnauthorized
	}
	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return User{}, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if u.User.ID == principal.UserID {
			return u.User, nil
		}
	}
	return User{}, ErrNotFound
}

// RevokeSession invalidates an existing session token until it would have expired.
// Expired revocations are pruned on each call.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.signer == nil || s.revocations == nil {
		return fmt.Errorf("auth service not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "RevokeSession")

	claims, err := s.signer.Parse(trimmed)
	if errors.Is(err, ErrSessionExpired) {
		logger.InfoContext(ctx, "session already expired")
		return nil
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger = logger.With("session_id", claims.SessionID, "user_id", claims.UserID)

	s.mu.Lock()
	defer s.mu.Unlock()

	revoked, err := s.revocations.LoadRevokedSessions(ctx)
	if err != nil {
		err = fmt.Errorf("load revoked sessions: %w", err)
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	now := s.now()
	kept := make([]RevokedSession, 0, len(revoked)+1)
	for _, r := range revoked {
		if r.ExpiresAt.After(now) && r.SessionID != claims.SessionID {
			kept = append(kept, r)
		}
	}
	kept = append(kept, RevokedSession{SessionID: claims.SessionID, ExpiresAt: claims.ExpiresAt})

	if err := s.revocations.SaveRevokedSessions(ctx, kept); err != nil {
		err = fmt.Errorf("save revoked sessions: %w", err)
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.With("pruned", len(revoked)+1-len(kept)).InfoContext(ctx, "session revoked")
	return nil
}

func (s *AuthService) isRevoked(ctx context.Context, sessionID string) (bool, error) {
	if s.revocations == nil {
		return false, nil
	}
	revoked, err := s.revocations.LoadRevokedSessions(ctx)
	if err != nil {
		return false, fmt.Errorf("load revoked sessions: %w", err)
	}
	for _, r := range revoked {
		if r.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}
