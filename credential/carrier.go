package credential

import (
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/internal/config"
)

// Carrier holds the session credential and decorates outgoing API requests with it.
type Carrier interface {
	// Applicable reports whether req targets the configured API.
	Applicable(req *http.Request) bool
	// Attach returns a copy of req carrying the credential. It never mutates req
	// and never changes the carrier.
	Attach(req *http.Request) *http.Request
	// Capture records credential cookies set by an API response.
	Capture(resp *http.Response)
	// Establish stores a credential returned in a response body.
	Establish(accessToken string) error
	// Expiry is the client side expiry of the credential, zero when unknown.
	Expiry() time.Time
	// Clear forgets the credential.
	Clear()
}

// NewCarrier returns the carrier for the configured mode. store is only used in
// token mode and defaults to an in-memory store.
func NewCarrier(cfg config.AuthConfig, store TokenStore) Carrier {
	if cfg.Mode == config.ModeToken {
		if store == nil {
			store = NewMemoryTokenStore()
		}
		return NewTokenCarrier(cfg, store)
	}
	return NewCookieCarrier(cfg)
}

// cookies is a private cookie jar restricted to API requests. The HTTP client
// itself carries no jar, so credentials never leak to other hosts.
type cookies struct {
	cfg config.AuthConfig
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newCookies(cfg config.AuthConfig) *cookies {
	jar, _ := cookiejar.New(nil)
	return &cookies{cfg: cfg, jar: jar}
}

func (c *cookies) Applicable(req *http.Request) bool {
	return req != nil && c.cfg.IsAPIRequest(req.URL)
}

func (c *cookies) get(req *http.Request, name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cookie := range c.jar.Cookies(req.URL) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// attach adds stored cookies to a clone of req unless req already names them.
func (c *cookies) attach(req *http.Request) *http.Request {
	out := req.Clone(req.Context())
	c.mu.RLock()
	stored := c.jar.Cookies(req.URL)
	c.mu.RUnlock()
	for _, cookie := range stored {
		if _, err := out.Cookie(cookie.Name); err == nil {
			continue
		}
		out.AddCookie(cookie)
	}
	return out
}

func (c *cookies) Capture(resp *http.Response) {
	if resp == nil || resp.Request == nil || !c.Applicable(resp.Request) {
		return
	}
	set := resp.Cookies()
	if len(set) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jar.SetCookies(resp.Request.URL, set)
}

func (c *cookies) clear() {
	jar, _ := cookiejar.New(nil)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jar = jar
}
