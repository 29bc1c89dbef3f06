package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/room-scheduler/internal/application"
)

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without valid session tokens", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			cookieToken    *http.Cookie
			headerToken    string
			lookupError    error
			expectedStatus int
			expectedCode   string
		}{
			{
				name:           "missing credentials",
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "bearer prefix missing",
				headerToken:    "malformed",
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "revoked session",
				cookieToken:    &http.Cookie{Name: sessionCookieName, Value: "revoked-token"},
				lookupError:    application.ErrSessionRevoked,
				expectedStatus: http.StatusUnauthorized,
				expectedCode:   "AUTH_SESSION_EXPIRED",
			},
			{
				name:           "expired session",
				headerToken:    "Bearer expired-token",
				lookupError:    fmt.Errorf("parse: %w", application.ErrSessionExpired),
				expectedStatus: http.StatusUnauthorized,
				expectedCode:   "AUTH_SESSION_EXPIRED",
			},
			{
				name:           "deleted user",
				headerToken:    "Bearer orphan-token",
				lookupError:    application.ErrUnauthorized,
				expectedStatus: http.StatusUnauthorized,
			},
			{
				name:           "store failure",
				headerToken:    "Bearer transient-error",
				lookupError:    errors.New("redis: connection refused"),
				expectedStatus: http.StatusInternalServerError,
			},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				if tc.cookieToken != nil {
					req.AddCookie(tc.cookieToken)
				}
				if tc.headerToken != "" {
					req.Header.Set("Authorization", tc.headerToken)
				}
				recorder := httptest.NewRecorder()

				validator := fakeSessionValidator{principal: application.Principal{UserID: "u-1", Role: application.RoleCommon}, err: tc.lookupError}
				handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("next handler should not be called when authentication fails")
				}))
				handler.ServeHTTP(recorder, req)

				if recorder.Code != tc.expectedStatus {
					t.Fatalf("expected status %d, got %d", tc.expectedStatus, recorder.Code)
				}
				if tc.expectedCode != "" {
					var resp errorResponse
					decodeBody(t, recorder, &resp)
					if resp.ErrorCode != tc.expectedCode {
						t.Fatalf("expected error code %q, got %+v", tc.expectedCode, resp)
					}
				}
			})
		}
	})

	t.Run("attaches authenticated principal to request context", func(t *testing.T) {
		t.Parallel()

		principal := application.Principal{UserID: "employee-123", Name: "Ana", Role: application.RoleAdministrator}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil).WithContext(context.Background())
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "valid-token"})
		recorder := httptest.NewRecorder()

		var captured application.Principal
		middleware := RequireSession(fakeSessionValidator{principal: principal, wantToken: "valid-token"}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				t.Fatal("expected principal in request context")
			}
			captured = p
			w.WriteHeader(http.StatusOK)
		}))
		middleware.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if captured != principal {
			t.Fatalf("expected principal %+v, got %+v", principal, captured)
		}
	})
}

func TestExtractTokenFromRequest(t *testing.T) {
	t.Parallel()

	t.Run("bearer header wins over cookie", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer  header-token ")
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie-token"})
		if got := extractTokenFromRequest(req); got != "header-token" {
			t.Fatalf("expected header token, got %q", got)
		}
	})

	t.Run("query token only for websocket handshakes", func(t *testing.T) {
		t.Parallel()
		plain := httptest.NewRequest(http.MethodGet, "/events?token=abc", nil)
		if got := extractTokenFromRequest(plain); got != "" {
			t.Fatalf("expected no token for plain request, got %q", got)
		}

		upgrade := httptest.NewRequest(http.MethodGet, "/events?token=abc", nil)
		upgrade.Header.Set("Connection", "Upgrade")
		upgrade.Header.Set("Upgrade", "websocket")
		if got := extractTokenFromRequest(upgrade); got != "abc" {
			t.Fatalf("expected query token, got %q", got)
		}
	})
}

type fakeSessionValidator struct {
	principal application.Principal
	err       error
	wantToken string
}

func (f fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	if f.wantToken != "" && token != f.wantToken {
		return application.Principal{}, application.ErrUnauthorized
	}
	return f.principal, f.err
}
