// Package tokenfake mints JWTs signed with a throwaway key for tests.
package tokenfake

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var signingKey = []byte("tokenfake-signing-key")

// Mint returns an HS256 token with the given exp and extra claims.
// A zero exp omits the claim.
func Mint(exp time.Time, extra map[string]any) string {
	claims := jwtlib.MapClaims{
		"iat": time.Now().Unix(),
	}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	for k, v := range extra {
		claims[k] = v
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic("tokenfake: " + err.Error())
	}
	return signed
}

// Valid returns a token expiring in one hour
func Valid() string {
	return Mint(time.Now().Add(time.Hour), nil)
}

// Expired returns a token that expired one hour ago
func Expired() string {
	return Mint(time.Now().Add(-time.Hour), nil)
}

// Welcome returns an activation token carrying the identity of a new account
func Welcome(id, nombre, apellidos, email string) string {
	return Mint(time.Now().Add(24*time.Hour), map[string]any{
		"id":        id,
		"nombre":    nombre,
		"apellidos": apellidos,
		"email":     email,
	})
}
