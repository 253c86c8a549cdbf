package credential_test

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/internal/config"
)

const apiBase = "http://api.test"

func testConfig(mode config.Mode) config.AuthConfig {
	return config.AuthConfig{BaseURL: apiBase, APIPrefix: "/api", Mode: mode}.Normalize()
}

func newRequest(t *testing.T, method, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	return req
}

// respond simulates an API response to req that sets the given cookies.
func respond(req *http.Request, cookies ...*http.Cookie) *http.Response {
	resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Request: req}
	for _, c := range cookies {
		resp.Header.Add("Set-Cookie", c.String())
	}
	return resp
}

func loginCookies() []*http.Cookie {
	return []*http.Cookie{
		{Name: "access_token_cookie", Value: "access-jwt", Path: "/", HttpOnly: true},
		{Name: "refresh_token_cookie", Value: "refresh-opaque", Path: "/api/auth", HttpOnly: true},
		{Name: config.DefaultAccessCSRFCookie, Value: "csrf-access", Path: "/"},
		{Name: config.DefaultRefreshCSRFCookie, Value: "csrf-refresh", Path: "/"},
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "user-1"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func cookieValue(req *http.Request, name string) string {
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func TestNewCarrierSelectsMode(t *testing.T) {
	require.IsType(t, &credential.CookieCarrier{}, credential.NewCarrier(testConfig(config.ModeCookie), nil))
	require.IsType(t, &credential.TokenCarrier{}, credential.NewCarrier(testConfig(config.ModeToken), nil))
}

func TestCookieCarrier(t *testing.T) {
	carrier := credential.NewCookieCarrier(testConfig(config.ModeCookie))
	carrier.Capture(respond(newRequest(t, http.MethodPost, apiBase+"/api/auth/login"), loginCookies()...))

	t.Run("safe method carries cookies without csrf", func(t *testing.T) {
		req := newRequest(t, http.MethodGet, apiBase+"/api/me")
		out := carrier.Attach(req)
		require.Equal(t, "access-jwt", cookieValue(out, "access_token_cookie"))
		require.Empty(t, out.Header.Get(config.DefaultCSRFHeader))
		require.Empty(t, req.Header.Get("Cookie"), "original request must not change")
	})

	t.Run("mutating method sends access csrf", func(t *testing.T) {
		out := carrier.Attach(newRequest(t, http.MethodPost, apiBase+"/api/notes"))
		require.Equal(t, "csrf-access", out.Header.Get(config.DefaultCSRFHeader))
		require.Empty(t, cookieValue(out, "refresh_token_cookie"), "refresh cookie is path scoped")
	})

	t.Run("refresh sends refresh csrf and refresh cookie", func(t *testing.T) {
		out := carrier.Attach(newRequest(t, http.MethodPost, apiBase+"/api/auth/refresh"))
		require.Equal(t, "csrf-refresh", out.Header.Get(config.DefaultCSRFHeader))
		require.Equal(t, "refresh-opaque", cookieValue(out, "refresh_token_cookie"))
	})

	t.Run("non api requests are untouched", func(t *testing.T) {
		req := newRequest(t, http.MethodPost, "http://elsewhere.test/api/notes")
		require.False(t, carrier.Applicable(req))
		out := carrier.Attach(req)
		require.Same(t, req, out)
		require.Empty(t, out.Header.Get(config.DefaultCSRFHeader))
	})

	t.Run("responses from other hosts are ignored", func(t *testing.T) {
		carrier.Capture(respond(newRequest(t, http.MethodGet, "http://elsewhere.test/"), &http.Cookie{Name: "tracker", Value: "x", Path: "/"}))
		out := carrier.Attach(newRequest(t, http.MethodGet, apiBase+"/api/me"))
		require.Empty(t, cookieValue(out, "tracker"))
	})

	t.Run("expired cookies are removed", func(t *testing.T) {
		carrier.Capture(respond(newRequest(t, http.MethodPost, apiBase+"/api/auth/logout"),
			&http.Cookie{Name: config.DefaultAccessCSRFCookie, Value: "", Path: "/", MaxAge: -1}))
		out := carrier.Attach(newRequest(t, http.MethodPost, apiBase+"/api/notes"))
		require.Empty(t, out.Header.Get(config.DefaultCSRFHeader))
		require.Equal(t, "access-jwt", cookieValue(out, "access_token_cookie"))
	})

	t.Run("clear forgets everything", func(t *testing.T) {
		carrier.Clear()
		out := carrier.Attach(newRequest(t, http.MethodGet, apiBase+"/api/me"))
		require.Empty(t, out.Cookies())
		require.True(t, carrier.Expiry().IsZero())
	})
}

func TestTokenCarrier(t *testing.T) {
	store := credential.NewMemoryTokenStore()
	carrier := credential.NewTokenCarrier(testConfig(config.ModeToken), store)

	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := signedToken(t, exp)
	require.NoError(t, carrier.Establish(token))
	require.True(t, carrier.Expiry().Equal(exp))

	t.Run("protected request carries bearer", func(t *testing.T) {
		out := carrier.Attach(newRequest(t, http.MethodGet, apiBase+"/api/me"))
		require.Equal(t, "Bearer "+token, out.Header.Get("Authorization"))
	})

	t.Run("identity issuing endpoints never carry the token", func(t *testing.T) {
		for _, path := range []string{"/auth/login", "/auth/register", "/auth/forgot-password", "/auth/reset-password"} {
			out := carrier.Attach(newRequest(t, http.MethodPost, apiBase+"/api"+path))
			require.Empty(t, out.Header.Get("Authorization"), path)
		}
	})

	t.Run("other hosts never carry the token", func(t *testing.T) {
		out := carrier.Attach(newRequest(t, http.MethodGet, "http://elsewhere.test/api/me"))
		require.Empty(t, out.Header.Get("Authorization"))
	})

	t.Run("refresh cookie is carried", func(t *testing.T) {
		carrier.Capture(respond(newRequest(t, http.MethodPost, apiBase+"/api/auth/login"),
			&http.Cookie{Name: "refresh_token_cookie", Value: "refresh-opaque", Path: "/api/auth", HttpOnly: true}))
		out := carrier.Attach(newRequest(t, http.MethodPost, apiBase+"/api/auth/refresh"))
		require.Equal(t, "refresh-opaque", cookieValue(out, "refresh_token_cookie"))
	})

	t.Run("clear", func(t *testing.T) {
		carrier.Clear()
		tok, err := store.Token()
		require.NoError(t, err)
		require.Nil(t, tok)
		out := carrier.Attach(newRequest(t, http.MethodPost, apiBase+"/api/auth/refresh"))
		require.Empty(t, out.Header.Get("Authorization"))
		require.Empty(t, out.Cookies())
	})

	require.Error(t, carrier.Establish(""))
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	credential.NowTimeFunc = func() time.Time { return now }
	defer func() { credential.NowTimeFunc = time.Now }()

	exp := now.Add(5 * time.Minute)
	require.True(t, credential.TokenExpiry(signedToken(t, exp)).Equal(exp))
	require.Equal(t, now.Add(credential.DefaultTokenLifetime), credential.TokenExpiry(signedToken(t, time.Time{})))
	require.Equal(t, now.Add(credential.DefaultTokenLifetime), credential.TokenExpiry("not-a-jwt"))
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := credential.NewFileTokenStore(path)

	tok, err := store.Token()
	require.NoError(t, err)
	require.Nil(t, tok)

	exp := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetToken(&oauth2.Token{AccessToken: "abc", TokenType: "Bearer", Expiry: exp}))

	reopened := credential.NewFileTokenStore(path)
	tok, err = reopened.Token()
	require.NoError(t, err)
	require.Equal(t, "abc", tok.AccessToken)
	require.True(t, tok.Expiry.Equal(exp))

	require.NoError(t, reopened.Clear())
	require.NoError(t, reopened.Clear())
	tok, err = store.Token()
	require.NoError(t, err)
	require.Nil(t, tok)
}
