package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/auth"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/auth/session"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/config"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "cronograma", ExpirationMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	token, jti := mintTestToken(t, "ana", enums.UserRoleUser)

	var captured struct {
		login   string
		role    enums.UserRole
		session string
		email   string
	}
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.login = LoginFromContext(r.Context())
		captured.role = RoleFromContext(r.Context())
		captured.session = SessionIDFromContext(r.Context())
		captured.email = ClaimsFromContext(r.Context()).Email
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.login != "ana" || captured.email != "ana@x.com" {
		t.Fatalf("unexpected identity %q %q", captured.login, captured.email)
	}
	if captured.role != enums.UserRoleUser {
		t.Fatalf("expected role %s got %s", enums.UserRoleUser, captured.role)
	}
	if captured.session != jti {
		t.Fatalf("expected session %s got %s", jti, captured.session)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token, _ := mintTestToken(t, "ana", enums.UserRoleUser)
	handler := Auth(testJWT, stubSessionVerifier{ok: false}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSessionStoreFailure(t *testing.T) {
	token, _ := mintTestToken(t, "ana", enums.UserRoleUser)
	handler := Auth(testJWT, stubSessionVerifier{err: errors.New("redis down")}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestRequireRole(t *testing.T) {
	userToken, _ := mintTestToken(t, "ana", enums.UserRoleUser)
	adminToken, _ := mintTestToken(t, "chefe", enums.UserRoleAdmin)
	handler := Auth(testJWT, nil, nil)(RequireRole(nil, enums.UserRoleAdmin)(okHandler()))

	cases := []struct {
		token string
		want  int
	}{
		{token: userToken, want: http.StatusForbidden},
		{token: adminToken, want: http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("expected %d got %d", tc.want, resp.Code)
		}
	}
}

func mintTestToken(t *testing.T, login string, role enums.UserRole) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		Login: login,
		Email: login + "@x.com",
		Role:  role,
		JTI:   accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, accessID
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}
