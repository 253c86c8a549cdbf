package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// Mode selects how the session credential travels with each request.
type Mode string

const (
	// ModeCookie relies on HttpOnly cookies set by the backend plus a CSRF double submit header.
	ModeCookie Mode = "cookie"
	// ModeToken keeps an access token on the client and sends it as a bearer header.
	ModeToken Mode = "token"
)

const (
	DefaultCSRFHeader        = "X-CSRF-TOKEN"
	DefaultAccessCSRFCookie  = "csrf_access_token"
	DefaultRefreshCSRFCookie = "csrf_refresh_token"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeCookie:
		return ModeCookie, nil
	case ModeToken:
		return ModeToken, nil
	}
	return "", errors.Wrapf(errors.ErrValidation, "unknown auth mode %q", s)
}

type Routes struct {
	Home  string `koanf:"home"`
	Login string `koanf:"login"`
}

type Endpoints struct {
	Login          string `koanf:"login"`
	Logout         string `koanf:"logout"`
	Refresh        string `koanf:"refresh"`
	Register       string `koanf:"register"`
	ForgotPassword string `koanf:"forgotPassword"`
	ResetPassword  string `koanf:"resetPassword"`
	Me             string `koanf:"me"`
}

type CSRF struct {
	HeaderName        string `koanf:"headerName"`
	AccessCookieName  string `koanf:"accessCookieName"`
	RefreshCookieName string `koanf:"refreshCookieName"`
}

// AuthConfig describes the remote API the client authenticates against.
// BaseURL is the API origin, APIPrefix the path every endpoint lives under.
type AuthConfig struct {
	BaseURL   string    `koanf:"baseURL"`
	APIPrefix string    `koanf:"apiPrefix"`
	Mode      Mode      `koanf:"mode"`
	Routes    Routes    `koanf:"routes"`
	Endpoints Endpoints `koanf:"endpoints"`
	CSRF      CSRF      `koanf:"csrf"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:          "/auth/login",
		Logout:         "/auth/logout",
		Refresh:        "/auth/refresh",
		Register:       "/auth/register",
		ForgotPassword: "/auth/forgot-password",
		ResetPassword:  "/auth/reset-password",
		Me:             "/me",
	}
}

func DefaultCSRF() CSRF {
	return CSRF{
		HeaderName:        DefaultCSRFHeader,
		AccessCookieName:  DefaultAccessCSRFCookie,
		RefreshCookieName: DefaultRefreshCSRFCookie,
	}
}

// Normalize returns a copy with every omitted field set to its default.
func (c AuthConfig) Normalize() AuthConfig {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIPrefix = NormalizePrefix(c.APIPrefix)
	if mode, err := ParseMode(string(c.Mode)); err == nil {
		c.Mode = mode
	}
	c.Routes.Home = defaultString(c.Routes.Home, "/")
	c.Routes.Login = defaultString(c.Routes.Login, "/login")

	d := DefaultEndpoints()
	c.Endpoints.Login = defaultString(c.Endpoints.Login, d.Login)
	c.Endpoints.Logout = defaultString(c.Endpoints.Logout, d.Logout)
	c.Endpoints.Refresh = defaultString(c.Endpoints.Refresh, d.Refresh)
	c.Endpoints.Register = defaultString(c.Endpoints.Register, d.Register)
	c.Endpoints.ForgotPassword = defaultString(c.Endpoints.ForgotPassword, d.ForgotPassword)
	c.Endpoints.ResetPassword = defaultString(c.Endpoints.ResetPassword, d.ResetPassword)
	c.Endpoints.Me = defaultString(c.Endpoints.Me, d.Me)

	csrf := DefaultCSRF()
	c.CSRF.HeaderName = defaultString(c.CSRF.HeaderName, csrf.HeaderName)
	c.CSRF.AccessCookieName = defaultString(c.CSRF.AccessCookieName, csrf.AccessCookieName)
	c.CSRF.RefreshCookieName = defaultString(c.CSRF.RefreshCookieName, csrf.RefreshCookieName)
	return c
}

// Validate reports configuration that Normalize cannot repair.
func (c AuthConfig) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return errors.Wrapf(errors.ErrValidation, "invalid base URL %q", c.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return errors.Wrapf(errors.ErrValidation, "base URL %q must be an absolute http(s) URL", c.BaseURL)
	}
	for _, route := range []string{c.Routes.Home, c.Routes.Login} {
		if !strings.HasPrefix(route, "/") {
			return errors.Wrapf(errors.ErrValidation, "route %q must start with /", route)
		}
	}
	return nil
}

// APIURL joins the base URL, the API prefix and path.
func (c AuthConfig) APIURL(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.BaseURL, "/") + NormalizePrefix(c.APIPrefix) + path
}

// IsAPIRequest reports whether u addresses the configured API origin and prefix.
func (c AuthConfig) IsAPIRequest(u *url.URL) bool {
	root, ok := c.sameOrigin(u, "")
	if !ok {
		return false
	}
	return u.Path == root || strings.HasPrefix(u.Path, root+"/")
}

// IsEndpoint reports whether u addresses exactly the given API endpoint, ignoring the query.
func (c AuthConfig) IsEndpoint(u *url.URL, endpoint string) bool {
	path, ok := c.sameOrigin(u, endpoint)
	if !ok {
		return false
	}
	return strings.TrimRight(u.Path, "/") == strings.TrimRight(path, "/")
}

// IsIdentityIssuing reports whether u is one of the endpoints that establish or
// recover a credential from user input rather than from an existing session.
func (c AuthConfig) IsIdentityIssuing(u *url.URL) bool {
	for _, e := range []string{c.Endpoints.Login, c.Endpoints.Register, c.Endpoints.ForgotPassword, c.Endpoints.ResetPassword} {
		if c.IsEndpoint(u, e) {
			return true
		}
	}
	return false
}

func (c AuthConfig) sameOrigin(u *url.URL, endpoint string) (string, bool) {
	if u == nil {
		return "", false
	}
	target, err := url.Parse(c.APIURL(endpoint))
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(u.Scheme, target.Scheme) || !strings.EqualFold(u.Host, target.Host) {
		return "", false
	}
	return target.Path, true
}

// IsMutating reports whether method can change server state and so needs CSRF protection.
func IsMutating(method string) bool {
	switch strings.ToUpper(method) {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// NormalizePrefix forces a leading slash and strips trailing ones. "/" becomes "".
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return fmt.Sprintf("/%s", prefix)
}

func defaultString(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
