// Package session signs and verifies session tokens as HS256 JWTs.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/room-scheduler/internal/application"
)

const issuer = "roomsched"

// ErrEmptySecret is returned when a signer is built without a secret.
var ErrEmptySecret = errors.New("session: secret must not be empty")

// Signer implements application.TokenSigner.
type Signer struct {
	secret []byte
	now    func() time.Time
}

var _ application.TokenSigner = (*Signer)(nil)

// NewSigner returns a signer using secret as the HMAC key.
func NewSigner(secret string, now func() time.Time) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), now: now}, nil
}

// Sign encodes claims into a compact JWT. The session id travels as jti and the user id as sub.
func (s *Signer) Sign(claims application.SessionClaims) (string, error) {
	registered := jwt.RegisteredClaims{
		ID:        claims.SessionID,
		Subject:   claims.UserID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registered)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns its claims.
func (s *Signer) Parse(token string) (application.SessionClaims, error) {
	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &registered,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return application.SessionClaims{}, application.ErrSessionExpired
		}
		return application.SessionClaims{}, fmt.Errorf("%w: %v", application.ErrUnauthorized, err)
	}
	if registered.ID == "" || registered.Subject == "" {
		return application.SessionClaims{}, fmt.Errorf("%w: token is missing jti or sub", application.ErrUnauthorized)
	}

	claims := application.SessionClaims{
		SessionID: registered.ID,
		UserID:    registered.Subject,
		ExpiresAt: registered.ExpiresAt.Time,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	return claims, nil
}
