package token

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/hazfactura/console/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the subset of an API-issued token the console reads.
// Welcome-link tokens carry the identity fields; session tokens usually only exp.
type Claims struct {
	ID        string
	GivenName string
	Surname   string
	Email     string
	Expiry    time.Time // Zero when the token has no exp claim
}

type apiClaims struct {
	ID        string `json:"id"`
	Nombre    string `json:"nombre"`
	Apellidos string `json:"apellidos"`
	Email     string `json:"email"`
	jwtlib.RegisteredClaims
}

// Decode reads the claims of a JWT without verifying its signature.
// The console holds no verification key; the API verifies every call.
func Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[token Decode] empty token")
	}

	var c apiClaims
	if _, _, err := jwtlib.NewParser().ParseUnverified(raw, &c); err != nil {
		return nil, fmt.Errorf("[token Decode] %w: %v", errors.ErrInvalidToken, err)
	}

	claims := &Claims{
		ID:        c.ID,
		GivenName: c.Nombre,
		Surname:   c.Apellidos,
		Email:     c.Email,
	}
	if claims.ID == "" {
		claims.ID = c.Subject
	}
	if c.ExpiresAt != nil {
		claims.Expiry = c.ExpiresAt.Time
	}
	return claims, nil
}

// Expired reports whether the exp claim lies strictly before now.
// Tokens without exp never expire on the console side.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.Expiry.IsZero() {
		return false
	}
	return c.Expiry.Before(now)
}

// Validate decodes raw and rejects it when expired
func Validate(raw string) (*Claims, error) {
	claims, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.Expired(NowTimeFunc()) {
		return claims, errors.Wrapf(errors.ErrTokenExpired, "[token Validate] expired at %s", claims.Expiry.Format(time.RFC3339))
	}
	return claims, nil
}
