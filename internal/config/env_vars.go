package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	apiPrefixVar    = "API_PREFIX"
	redisAddrVar    = "REDIS_ADDR"
	resetLinkVar    = "RESET_LINK_BASE"
	defaultPrefix   = "/api"
	defaultResetURL = "http://localhost:4200/reset-password"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Mock Auth Backend")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetAPIPrefix returns the path every JSON endpoint is mounted under, without a trailing slash.
func (EnvVars) GetAPIPrefix() string {
	return NormalizePrefix(GetEnv(apiPrefixVar, defaultPrefix))
}

// GetRedisAddr returns the redis address for shared reset tokens. Empty selects the in-memory store.
func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

// GetResetLinkBase is the page the logged password reset link points at.
func (EnvVars) GetResetLinkBase() string {
	return GetEnv(resetLinkVar, defaultResetURL)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt reads an integer variable, falling back to defaultValue when unset or malformed.
func GetEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}
