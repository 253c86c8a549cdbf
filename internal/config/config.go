package config

// Config is the mock identity backend configuration. Every concern is read
// through its own getter interface so tests can override single values by
// embedding Config in a struct of their own.
type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetAPIPrefix() string
	GetRedisAddr() string
	GetResetLinkBase() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Security
}

func New() Config {
	return mainConfig{}
}
