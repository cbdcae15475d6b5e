package token_test

import (
	"testing"
	"time"

	"github.com/hazfactura/console/internal/errors"
	"github.com/hazfactura/console/token"
	"github.com/hazfactura/console/token/tokenfake"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("welcome token identity", func(t *testing.T) {
		claims, err := token.Decode(tokenfake.Welcome("u-1", "Ana", "López", "ana@example.com"))
		require.NoError(t, err)
		require.Equal(t, "u-1", claims.ID)
		require.Equal(t, "Ana", claims.GivenName)
		require.Equal(t, "López", claims.Surname)
		require.Equal(t, "ana@example.com", claims.Email)
		require.False(t, claims.Expired(time.Now()))
	})

	t.Run("subject fallback", func(t *testing.T) {
		claims, err := token.Decode(tokenfake.Mint(time.Now().Add(time.Hour), map[string]any{"sub": "u-9"}))
		require.NoError(t, err)
		require.Equal(t, "u-9", claims.ID)
	})

	t.Run("no exp never expires", func(t *testing.T) {
		claims, err := token.Decode(tokenfake.Mint(time.Time{}, nil))
		require.NoError(t, err)
		require.True(t, claims.Expiry.IsZero())
		require.False(t, claims.Expired(time.Now().Add(100*365*24*time.Hour)))
	})

	t.Run("garbage", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "abc", "a.b.c", "not-a-jwt-at-all"} {
			_, err := token.Decode(raw)
			require.Error(t, err, raw)
			require.True(t, errors.Is(err, errors.ErrInvalidToken), raw)
		}
	})
}

func TestValidate(t *testing.T) {
	_, err := token.Validate(tokenfake.Valid())
	require.NoError(t, err)

	_, err = token.Validate(tokenfake.Expired())
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrTokenExpired))
}

func TestValidate_UsesNowTimeFunc(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	raw := tokenfake.Mint(exp, nil)

	original := token.NowTimeFunc
	t.Cleanup(func() { token.NowTimeFunc = original })
	token.NowTimeFunc = func() time.Time { return exp.Add(time.Minute) }

	_, err := token.Validate(raw)
	require.True(t, errors.Is(err, errors.ErrTokenExpired))
}
