// Package auth inspects bearer tokens on the client side. The client
// never verifies signatures (only the server holds the secret); it just
// reads registered claims to decide when a refresh is worth attempting.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoExpiry = errors.New("token carries no expiry")

// Claims are the registered claims the backend puts in every token,
// plus the token type that distinguishes access from refresh tokens.
type Claims struct {
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes a token without verifying it.
func Inspect(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ExpiresAt returns the token expiry, or ErrNoExpiry.
func ExpiresAt(token string) (time.Time, error) {
	claims, err := Inspect(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Stale reports whether the token is expired or expires within leeway.
// Malformed tokens and tokens without an expiry count as stale, so the
// caller falls through to a refresh attempt instead of a doomed call.
func Stale(token string, leeway time.Duration) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	return time.Now().Add(leeway).After(exp)
}
