package config

import "time"

type SecurityConfig interface {
	GetAuthMode() Mode
	GetJWTSecret() []byte
	GetLatency() (minimum, maximum time.Duration)
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetAuthMode selects how the backend hands out credentials, "cookie" or "token".
func (Security) GetAuthMode() Mode {
	mode, err := ParseMode(GetEnv("AUTH_MODE", string(ModeCookie)))
	if err != nil {
		return ModeCookie
	}
	return mode
}

func (Security) GetJWTSecret() []byte {
	return []byte(GetEnv("JWT_SECRET", "mock-backend-development-secret"))
}

// GetLatency is the artificial delay range applied to every API response.
func (Security) GetLatency() (minimum, maximum time.Duration) {
	minimum = time.Duration(GetEnvInt("LATENCY_MIN_MS", 0)) * time.Millisecond
	maximum = time.Duration(GetEnvInt("LATENCY_MAX_MS", 0)) * time.Millisecond
	if maximum < minimum {
		maximum = minimum
	}
	return minimum, maximum
}
