package config

import "time"

type TokenConfig interface {
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetResetTokenExpiry() time.Duration
	GetResetTokenLength() int
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

func (Tokens) GetAccessTokenExpiry() time.Duration {
	return time.Duration(GetEnvInt("ACCESS_TOKEN_MINUTES", 15)) * time.Minute
}

func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}

func (Tokens) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (Tokens) GetResetTokenExpiry() time.Duration {
	return 30 * time.Minute
}

func (Tokens) GetResetTokenLength() int {
	return 32
}
