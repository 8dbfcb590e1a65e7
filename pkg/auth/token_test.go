package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/config"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
)

func testJWTConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "cronograma",
		ExpirationMinutes: minutes,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig(30)
	now := time.Now().UTC()

	payload := AccessTokenPayload{
		Login: "ana",
		Email: "ana@florestal.com",
		Role:  enums.UserRoleAdmin,
		JTI:   "fixed-jti",
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.Login != "ana" || claims.Subject != "ana" {
		t.Fatalf("unexpected login %q / subject %q", claims.Login, claims.Subject)
	}
	if claims.Email != payload.Email {
		t.Fatalf("expected email %s, got %s", payload.Email, claims.Email)
	}
	if !claims.IsAdmin() {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.ID != "fixed-jti" {
		t.Fatalf("expected jti to be preserved, got %q", claims.ID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintAccessTokenGeneratesJTI(t *testing.T) {
	cfg := testJWTConfig(5)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Login: "bia", Role: enums.UserRoleUser})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
	if claims.IsAdmin() {
		t.Fatal("plain user must not be admin")
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Login: "ana", Role: enums.UserRoleUser})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	other := cfg
	other.Secret = "another-secret"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig(15)
	now := time.Now().Add(-time.Hour)

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{Login: "ana", Role: enums.UserRoleUser})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("allow expired parse: %v", err)
	}
	if claims.Login != "ana" {
		t.Fatalf("unexpected login %q", claims.Login)
	}
}

func TestMintAccessTokenInvalidRole(t *testing.T) {
	cfg := testJWTConfig(5)
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Login: "ana", Role: "owner"}); err == nil {
		t.Fatal("expected invalid role error")
	}
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.UserRoleUser}); err == nil {
		t.Fatal("expected missing login error")
	}
}

func TestParseRejectsForeignIssuer(t *testing.T) {
	cfg := testJWTConfig(15)
	other := cfg
	other.Issuer = "outro-sistema"

	token, err := MintAccessToken(other, time.Now().Add(-time.Hour), AccessTokenPayload{Login: "ana", Role: enums.UserRoleUser})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected issuer error")
	}
	if _, err := ParseAccessTokenAllowExpired(cfg, token); !errors.Is(err, ErrTokenIssuer) {
		t.Fatalf("expected ErrTokenIssuer, got %v", err)
	}
}
