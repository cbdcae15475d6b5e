package config

import (
	"strings"
	"time"
)

type API struct{}

var _ APIConfig = API{}

// GetAPIURL returns the billing API base URL without a trailing slash.
func (API) GetAPIURL() string {
	return strings.TrimRight(GetEnv("API_URL", "http://localhost:3000/api"), "/")
}

func (API) GetAPITimeout() time.Duration {
	return GetEnvDuration("API_TIMEOUT", 30*time.Second)
}
