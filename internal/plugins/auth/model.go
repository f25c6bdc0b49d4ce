// Package auth issues and validates owner tokens for the business console.
// A token is an HS256 JWT whose subject is the owner id; every calendar
// route runs behind RequireOwner. Logging out revokes the token's id in
// Redis until the token would have expired anyway.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims are the JWT claims carried by an owner token.
type Claims struct {
	jwt.RegisteredClaims
}

// OwnerID returns the token subject.
func (c *Claims) OwnerID() string { return c.Subject }

// --- Request/response DTOs ---

// TokenRequest asks for a token for an owner (development only).
type TokenRequest struct {
	OwnerID string `json:"owner_id" form:"owner_id"`
}

// TokenResponse is returned by the token endpoint.
type TokenResponse struct {
	Token     string    `json:"token"`
	OwnerID   string    `json:"owner_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
