package credential

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// DefaultTokenLifetime applies to access tokens without a readable exp claim.
const DefaultTokenLifetime = time.Hour

// NowTimeFunc stamps tokens that carry no expiry of their own.
var NowTimeFunc = time.Now

// TokenCarrier keeps an access token on the client and sends it as a bearer
// header. API cookies are still carried so the backend can rotate the token
// through its refresh cookie.
type TokenCarrier struct {
	*cookies
	store TokenStore
}

var _ Carrier = (*TokenCarrier)(nil)

func NewTokenCarrier(cfg config.AuthConfig, store TokenStore) *TokenCarrier {
	return &TokenCarrier{cookies: newCookies(cfg), store: store}
}

func (c *TokenCarrier) Attach(req *http.Request) *http.Request {
	if !c.Applicable(req) {
		return req
	}
	out := c.attach(req)
	if c.cfg.IsIdentityIssuing(req.URL) {
		return out
	}
	tok, err := c.store.Token()
	if err != nil {
		log.Warn().Err(err).Msg("reading stored access token")
		return out
	}
	if tok != nil && tok.AccessToken != "" {
		tok.SetAuthHeader(out)
	}
	return out
}

func (c *TokenCarrier) Establish(accessToken string) error {
	if accessToken == "" {
		return errors.Wrapf(errors.ErrValidation, "[credential Establish] empty access token")
	}
	return c.store.SetToken(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Expiry:      TokenExpiry(accessToken),
	})
}

func (c *TokenCarrier) Expiry() time.Time {
	tok, err := c.store.Token()
	if err != nil || tok == nil {
		return time.Time{}
	}
	return tok.Expiry
}

// AccessToken returns the stored token, nil when there is none.
func (c *TokenCarrier) AccessToken() *oauth2.Token {
	tok, err := c.store.Token()
	if err != nil {
		return nil
	}
	return tok
}

func (c *TokenCarrier) Clear() {
	c.clear()
	if err := c.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("clearing stored access token")
	}
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// Tokens that are not JWTs, or carry no exp, expire DefaultTokenLifetime from now.
func TokenExpiry(accessToken string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return NowTimeFunc().Add(DefaultTokenLifetime)
}
