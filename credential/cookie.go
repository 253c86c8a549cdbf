package credential

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-client/internal/config"
)

// CookieCarrier sends the HttpOnly session cookies set by the backend with every
// API request and echoes the readable CSRF cookie in a header on mutating ones.
type CookieCarrier struct {
	*cookies
}

var _ Carrier = (*CookieCarrier)(nil)

func NewCookieCarrier(cfg config.AuthConfig) *CookieCarrier {
	return &CookieCarrier{cookies: newCookies(cfg)}
}

func (c *CookieCarrier) Attach(req *http.Request) *http.Request {
	if !c.Applicable(req) {
		return req
	}
	out := c.attach(req)
	if !config.IsMutating(req.Method) {
		return out
	}

	cookieName := c.cfg.CSRF.AccessCookieName
	if c.cfg.IsEndpoint(req.URL, c.cfg.Endpoints.Refresh) {
		cookieName = c.cfg.CSRF.RefreshCookieName
	}
	if token := c.get(req, cookieName); token != "" {
		out.Header.Set(c.cfg.CSRF.HeaderName, token)
	}
	return out
}

// Establish does nothing: the backend sets cookie credentials itself.
func (c *CookieCarrier) Establish(string) error {
	return nil
}

func (c *CookieCarrier) Expiry() time.Time {
	return time.Time{}
}

func (c *CookieCarrier) Clear() {
	c.clear()
}
