// Package reset stores single use password reset tokens.
package reset

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Token is an issued reset link secret and the account it resets.
type Token struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store persists reset tokens. Consume returns a token at most once; unknown,
// used and expired tokens all fail with errors.ErrInvalidToken.
type Store interface {
	Save(ctx context.Context, token *Token) error
	Consume(ctx context.Context, token string) (*Token, error)
}

// New creates a token for email valid for ttl.
func New(email string, length int, ttl time.Duration) (*Token, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate reset token: %w", err)
	}
	return &Token{
		Token:     hex.EncodeToString(b),
		Email:     email,
		ExpiresAt: NowTimeFunc().Add(ttl),
	}, nil
}

func invalid(op string) error {
	return errors.Wrapf(errors.ErrInvalidToken, "[%s]", op)
}
