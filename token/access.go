package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	ID        string    // jti
	UserID    string    // sub
	Email     string    // email
	CSRF      string    // value the client must echo in the CSRF header in cookie mode
	IssuedAt  time.Time // iat
	ExpiresAt time.Time // exp
}

// Issuer creates and verifies short lived access tokens.
type Issuer struct {
	signer  Signer
	config  config.TokenConfig
	nowTime func() time.Time
}

type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

func NewIssuer(signer Signer, cfg config.TokenConfig, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer:  signer,
		config:  cfg,
		nowTime: NowTimeFunc,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Issue creates a signed access token for the user with a fresh CSRF value.
func (i *Issuer) Issue(userID, email string) (string, *AccessClaims, error) {
	now := i.nowTime()
	claims := &AccessClaims{
		ID:        uuid.New().String(),
		UserID:    userID,
		Email:     email,
		CSRF:      uuid.New().String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(i.config.GetAccessTokenExpiry()),
	}
	signed, err := i.signer.Sign(jwt.MapClaims{
		"sub":   claims.UserID,
		"email": claims.Email,
		"csrf":  claims.CSRF,
		"type":  "access",
		"iat":   claims.IssuedAt.Unix(),
		"exp":   claims.ExpiresAt.Unix(),
		"jti":   claims.ID,
	})
	if err != nil {
		return "", nil, pkgerrors.Wrap(err, "issuing access token")
	}
	return signed, claims, nil
}

// Parse verifies an access token. Expired tokens fail with errors.ErrTokenExpired,
// anything else unusable with errors.ErrInvalidToken.
func (i *Issuer) Parse(accessToken string) (*AccessClaims, error) {
	mapClaims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(accessToken, mapClaims, i.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowTime),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrapf(errors.ErrTokenExpired, "[Issuer Parse]")
		}
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Issuer Parse] %v", err)
	}
	if kind, _ := mapClaims["type"].(string); kind != "access" {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Issuer Parse] not an access token")
	}

	claims := &AccessClaims{}
	claims.ID, _ = mapClaims["jti"].(string)
	claims.UserID, _ = mapClaims["sub"].(string)
	claims.Email, _ = mapClaims["email"].(string)
	claims.CSRF, _ = mapClaims["csrf"].(string)
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
