package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultClientTokenTTL is how long a browser client identity lives without
// being reissued.
const DefaultClientTokenTTL = 30 * 24 * time.Hour

// Claims identify a browser client. The subject is the client ID, which keys
// both identity contexts and every session record of that browser.
type Claims struct {
	jwt.RegisteredClaims
}

// NewClientClaims builds claims for a client ID.
func NewClientClaims(clientID, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryWithLeeway checks exp and nbf at now with a grace period for
// clock skew.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}

// ShouldRenew reports whether less than a quarter of the lifetime remains.
func (c *Claims) ShouldRenew(now time.Time) bool {
	if c.ExpiresAt == nil || c.IssuedAt == nil {
		return false
	}
	life := c.ExpiresAt.Sub(c.IssuedAt.Time)
	return c.ExpiresAt.Sub(now) < life/4
}
