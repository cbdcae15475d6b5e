package config_test

import (
	"testing"
	"time"

	"github.com/hazfactura/console/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("API_URL", "")
	t.Setenv("REFRESH_INTERVAL", "")
	t.Setenv("SESSION_STORE", "")

	c := config.New()
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "http://localhost:3000/api", c.GetAPIURL())
	require.Equal(t, 10*time.Minute, c.GetRefreshInterval())
	require.Equal(t, 24*time.Hour, c.GetProfileTTL())
	require.Equal(t, config.SessionStoreFile, c.GetSessionStore())
	require.Equal(t, "haz_factura", c.GetSessionKeyPrefix())
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("API_URL", "https://api.example.com/v1/")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CLEAR_INVALID_SESSION", "true")
	t.Setenv("SESSION_FILE", "/tmp/hf/session.json")

	c := config.New()
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "https://api.example.com/v1", c.GetAPIURL())
	require.Equal(t, 30*time.Second, c.GetRefreshInterval())
	require.Equal(t, 3, c.GetRedisDB())
	require.True(t, c.GetClearInvalidSession())
	require.Equal(t, "/tmp/hf/session.json", c.GetSessionFile())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "soon")
	t.Setenv("REDIS_DB", "x")
	t.Setenv("OPEN_BROWSER", "maybe")

	c := config.New()
	require.Equal(t, 10*time.Minute, c.GetRefreshInterval())
	require.Equal(t, 0, c.GetRedisDB())
	require.False(t, c.GetOpenBrowser())
}
