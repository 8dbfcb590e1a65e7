package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Login string
	Email string
	Role  enums.UserRole
	JTI   string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	Login string         `json:"login"`
	Email string         `json:"email"`
	Role  enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the bearer sees every schedule row.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role.IsAdmin()
}
