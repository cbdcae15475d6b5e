package users_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hazfactura/console/users"
	"github.com/stretchr/testify/require"
)

func TestUser_ProfileState(t *testing.T) {
	var nilUser *users.User
	require.False(t, nilUser.HasBusiness())
	require.False(t, nilUser.IsAdmin())
	require.Equal(t, "", nilUser.FullName())

	u := &users.User{GivenName: "Ana", Surname: "López", Role: users.RoleAdmin}
	require.False(t, u.HasBusiness())
	require.True(t, u.IsAdmin())
	require.Equal(t, "Ana López", u.FullName())

	withBiz := u.WithBusiness("biz-1")
	require.True(t, withBiz.HasBusiness())
	require.False(t, u.HasBusiness(), "original must not change")
}

func TestUser_Expired(t *testing.T) {
	now := time.Now()
	u := &users.User{Exp: now.Add(-time.Minute).UnixMilli()}
	require.True(t, u.Expired(now))

	u.Exp = now.Add(time.Hour).UnixMilli()
	require.False(t, u.Expired(now))

	u.Exp = 0
	require.False(t, u.Expired(now))
	require.True(t, u.ExpiresAt().IsZero())
}

func TestUser_NullBusinessDecodesAsUnset(t *testing.T) {
	var u users.User
	err := json.Unmarshal([]byte(`{"id":"u1","business":null,"role":"Admin","exp":1700000000000}`), &u)
	require.NoError(t, err)
	require.False(t, u.HasBusiness())
	require.Equal(t, int64(1700000000000), u.Exp)
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "Secreto123", ""},
		{"too short", "Ab1", "al menos 8 caracteres"},
		{"no uppercase", "secreto123", "una letra mayúscula"},
		{"no number", "SecretoSeguro", "un número"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}
