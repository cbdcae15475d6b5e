package config

import (
	"os"
	"path/filepath"
	"time"
)

type SessionConfig interface {
	GetSessionStore() string
	GetSessionFile() string
	GetSessionSecret() string
	GetSessionKeyPrefix() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetSessionTTL() time.Duration
	GetProfileTTL() time.Duration
	GetRefreshInterval() time.Duration
	GetClearInvalidSession() bool
}

const (
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionStore() string {
	return GetEnv("SESSION_STORE", SessionStoreFile)
}

func (Session) GetSessionFile() string {
	if path := os.Getenv("SESSION_FILE"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "hazfactura", "session.json")
}

// GetSessionSecret returns the passphrase used to seal the session file at rest.
// Empty disables sealing.
func (Session) GetSessionSecret() string {
	return os.Getenv("SESSION_SECRET")
}

func (Session) GetSessionKeyPrefix() string {
	return GetEnv("SESSION_KEY_PREFIX", "haz_factura")
}

func (Session) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Session) GetRedisPassword() string {
	return os.Getenv("REDIS_PASSWORD")
}

func (Session) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

// GetSessionTTL is applied to the redis entry only. Zero keeps it until cleared.
func (Session) GetSessionTTL() time.Duration {
	return GetEnvDuration("SESSION_TTL", 0)
}

func (Session) GetProfileTTL() time.Duration {
	return GetEnvDuration("PROFILE_TTL", 24*time.Hour)
}

func (Session) GetRefreshInterval() time.Duration {
	return GetEnvDuration("REFRESH_INTERVAL", 10*time.Minute)
}

func (Session) GetClearInvalidSession() bool {
	return GetEnvBool("CLEAR_INVALID_SESSION", false)
}
