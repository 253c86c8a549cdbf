package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-client/accounts"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/server"
	refreshrepofake "github.com/jrsteele09/go-auth-client/token/refresh/repofake"
	"github.com/jrsteele09/go-auth-client/token/reset"
	fakeuserrepo "github.com/jrsteele09/go-auth-client/users/repofake"
)

const (
	adminEmail    = "admin@test.com"
	adminPassword = "1234"
	allowedOrigin = "http://localhost:4200"
)

type testConfig struct {
	config.Config
	mode config.Mode
}

func (c testConfig) GetAuthMode() config.Mode { return c.mode }
func (c testConfig) GetEnv() string           { return "TEST" }
func (c testConfig) GetAPIPrefix() string     { return "/api" }

func (c testConfig) GetLatency() (time.Duration, time.Duration) { return 0, 0 }

func (c testConfig) GetAllowedOrigins() config.AllowedOrigins {
	return config.AllowedOrigins{allowedOrigin: struct{}{}}
}

// clock is shared between the test and the handler goroutines.
type clock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type testFixture struct {
	clock  *clock
	server *server.Server
	http   *httptest.Server
	client *http.Client
	links  chan string
}

func setupTestFixture(t *testing.T, mode config.Mode) *testFixture {
	t.Helper()

	f := &testFixture{
		clock: &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)},
		links: make(chan string, 8),
	}
	srv, err := server.New(testConfig{Config: config.New(), mode: mode}, accounts.Repos{
		Users:   fakeuserrepo.NewFakeUserRepo(),
		Refresh: refreshrepofake.NewFakeRefreshTokenRepo(),
		Resets:  reset.NewMemoryStore().WithNowTime(f.clock.Now),
	},
		server.WithNowTime(f.clock.Now),
		server.WithResetMailer(func(_, link string) { f.links <- link }),
	)
	require.NoError(t, err)
	f.server = srv
	f.http = httptest.NewServer(srv)
	t.Cleanup(f.http.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f.client = &http.Client{Jar: jar}
	return f
}

func (f *testFixture) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.http.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}
	return resp, decoded
}

func (f *testFixture) cookie(t *testing.T, name string) string {
	t.Helper()
	u, err := url.Parse(f.http.URL)
	require.NoError(t, err)
	for _, c := range f.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (f *testFixture) login(t *testing.T) map[string]any {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": adminEmail, "password": adminPassword}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body
}

func TestCookieModeLoginAndProfile(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)

	resp, body := f.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Unauthorized", body["message"])

	body = f.login(t)
	require.Equal(t, true, body["ok"])
	require.NotContains(t, body, "accessToken")
	require.NotEmpty(t, f.cookie(t, server.AccessTokenCookie))
	require.NotEmpty(t, f.cookie(t, server.RefreshTokenCookie))
	require.NotEmpty(t, f.cookie(t, config.DefaultAccessCSRFCookie))
	require.NotEmpty(t, f.cookie(t, config.DefaultRefreshCSRFCookie))

	resp, body = f.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"email": adminEmail, "firstName": "Ludovic", "lastName": "Randu"}, body)
}

func TestLoginSetsHttpOnlyCookies(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)

	resp, _ := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": adminEmail, "password": adminPassword}, nil)
	httpOnly := map[string]bool{}
	for _, c := range resp.Cookies() {
		httpOnly[c.Name] = c.HttpOnly
	}
	require.True(t, httpOnly[server.AccessTokenCookie])
	require.True(t, httpOnly[server.RefreshTokenCookie])
	require.False(t, httpOnly[config.DefaultAccessCSRFCookie])
	require.False(t, httpOnly[config.DefaultRefreshCSRFCookie])
}

func TestLoginWrongPassword(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)

	resp, body := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": adminEmail, "password": "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid credentials", body["message"])
	require.Empty(t, f.cookie(t, server.AccessTokenCookie))
}

func TestCookieModeCSRFOnMutatingRequests(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)
	f.login(t)

	resp, body := f.do(t, http.MethodPatch, "/api/me", map[string]string{"firstName": "Ludo"}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Missing or invalid CSRF token", body["message"])

	resp, body = f.do(t, http.MethodPatch, "/api/me", map[string]string{"firstName": "Ludo"}, map[string]string{
		config.DefaultCSRFHeader: f.cookie(t, config.DefaultAccessCSRFCookie),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Ludo", body["firstName"])
}

func TestCookieModeRefresh(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)
	f.login(t)

	f.clock.Advance(16 * time.Minute)
	resp, body := f.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Session expired", body["message"])

	resp, _ = f.do(t, http.MethodPost, "/api/auth/refresh", struct{}{}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = f.do(t, http.MethodPost, "/api/auth/refresh", struct{}{}, map[string]string{
		config.DefaultCSRFHeader: f.cookie(t, config.DefaultRefreshCSRFCookie),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])

	resp, _ = f.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTokenMode(t *testing.T) {
	f := setupTestFixture(t, config.ModeToken)

	body := f.login(t)
	accessToken, _ := body["accessToken"].(string)
	require.NotEmpty(t, accessToken)
	require.Equal(t, map[string]any{"email": adminEmail}, body["user"])
	require.Empty(t, f.cookie(t, server.AccessTokenCookie))
	require.NotEmpty(t, f.cookie(t, server.RefreshTokenCookie))

	resp, _ := f.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	bearer := map[string]string{"Authorization": "Bearer " + accessToken}
	resp, body = f.do(t, http.MethodGet, "/api/me", nil, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Ludovic", body["firstName"])

	resp, body = f.do(t, http.MethodPatch, "/api/me", map[string]string{"lastName": "R"}, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "R", body["lastName"])

	resp, body = f.do(t, http.MethodPost, "/api/auth/refresh", struct{}{}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshed, _ := body["accessToken"].(string)
	require.NotEmpty(t, refreshed)

	resp, body = f.do(t, http.MethodGet, "/api/session", nil, map[string]string{"Authorization": "Bearer " + refreshed})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, adminEmail, body["email"])
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)

	newUser := map[string]string{"email": "new@test.com", "firstName": "Ada", "lastName": "Lovelace", "password": "password123"}
	resp, body := f.do(t, http.MethodPost, "/api/auth/register", newUser, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, body["ok"])

	resp, body = f.do(t, http.MethodPost, "/api/auth/register", newUser, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "Email already in use", body["message"])

	resp, body = f.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "x@test.com"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Missing fields", body["message"])
}

func TestForgotAndResetPassword(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)

	resp, body := f.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "nobody@test.com"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])
	require.Len(t, f.links, 0)

	resp, _ = f.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": adminEmail}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	link := <-f.links
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	resetToken := parsed.Query().Get("token")
	require.NotEmpty(t, resetToken)

	resp, body = f.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{"token": resetToken, "password": "new-password"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])

	resp, body = f.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{"token": resetToken, "password": "new-password"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid or expired link", body["message"])

	resp, _ = f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": adminEmail, "password": "new-password"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResetPasswordExpiredLink(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)

	f.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": adminEmail}, nil)
	parsed, err := url.Parse(<-f.links)
	require.NoError(t, err)

	f.clock.Advance(31 * time.Minute)
	resp, body := f.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{"token": parsed.Query().Get("token"), "password": "new-password"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid or expired link", body["message"])
}

func TestLogoutClearsSession(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)
	f.login(t)
	refreshToken := f.cookie(t, server.RefreshTokenCookie)

	resp, body := f.do(t, http.MethodPost, "/api/auth/logout", struct{}{}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])
	require.Empty(t, f.cookie(t, server.AccessTokenCookie))
	require.Empty(t, f.cookie(t, server.RefreshTokenCookie))

	resp, _ = f.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The forgotten refresh token cannot be replayed.
	resp, _ = f.do(t, http.MethodPost, "/api/auth/refresh", struct{}{}, map[string]string{
		"Cookie": server.RefreshTokenCookie + "=" + refreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logging out twice still succeeds.
	resp, _ = f.do(t, http.MethodPost, "/api/auth/logout", struct{}{}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCorsPreflight(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)

	resp, _ := f.do(t, http.MethodOptions, "/api/auth/login", nil, map[string]string{"Origin": allowedOrigin})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, allowedOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), config.DefaultCSRFHeader)

	resp, _ = f.do(t, http.MethodOptions, "/api/auth/login", nil, map[string]string{"Origin": "http://evil.test"})
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixture(t, config.ModeCookie)
	f.login(t)
	f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": adminEmail, "password": "wrong"}, nil)

	resp, err := f.client.Get(f.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(data), `mock_backend_logins_total{result="success"} 1`)
	require.Contains(t, string(data), `mock_backend_logins_total{result="failure"} 1`)
}
