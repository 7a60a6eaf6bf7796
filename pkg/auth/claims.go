package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the subset of the identity provider's access token the
// API relies on. Subject carries the provider's user id.
type IdentityClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthID returns the provider user id the tenant membership is keyed on.
func (c *IdentityClaims) AuthID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
