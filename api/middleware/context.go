package middleware

import (
	"context"

	pkgAuth "github.com/gustavosantosASA/Florestal-App-PPR/pkg/auth"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
)

type contextKey string

const ctxClaims contextKey = "claims"

// WithClaims stores the verified access token claims on the context.
func WithClaims(ctx context.Context, claims *pkgAuth.AccessTokenClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClaims, claims)
}

// ClaimsFromContext returns the claims set by Auth, or nil on public routes.
func ClaimsFromContext(ctx context.Context) *pkgAuth.AccessTokenClaims {
	if ctx == nil {
		return nil
	}
	claims, _ := ctx.Value(ctxClaims).(*pkgAuth.AccessTokenClaims)
	return claims
}

func LoginFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Login
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Role
	}
	return ""
}

// SessionIDFromContext is the token jti; filter sessions are keyed on it.
func SessionIDFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.ID
	}
	return ""
}
