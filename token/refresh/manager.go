package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation and validation
type Manager struct {
	repo    Repo
	config  config.TokenConfig
	nowTime func() time.Time
}

type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.TokenConfig, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:    repo,
		config:  cfg,
		nowTime: NowTimeFunc,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Create generates a new refresh token and stores it. A user holds a single
// refresh token; logging in again replaces the previous one.
func (m *Manager) Create(userID string) (*StoredRefreshToken, error) {
	if existingToken, err := m.repo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(existingToken.Token); err != nil {
			return nil, fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenStr, err := randomHex(m.config.GetRefreshTokenLength())
	if err != nil {
		return nil, err
	}
	csrf, err := randomHex(16)
	if err != nil {
		return nil, err
	}

	rt := &StoredRefreshToken{
		Token:  tokenStr,
		CSRF:   csrf,
		UserID: userID,
		Iat:    m.nowTime(),
	}
	if err := m.repo.Upsert(rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rt, nil
}

// Validate returns the stored token when it exists and has not expired.
// Expired tokens are deleted.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	if token == "" {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[refresh Validate] missing token")
	}
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[refresh Validate] %v", err)
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, errors.Wrapf(errors.ErrTokenExpired, "[refresh Validate]")
	}
	return rt, nil
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return m.nowTime().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}

func randomHex(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
