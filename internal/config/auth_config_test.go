package config_test

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/errors"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := config.AuthConfig{BaseURL: "http://localhost:8080/", APIPrefix: "api/"}.Normalize()

	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
	require.Equal(t, "/api", cfg.APIPrefix)
	require.Equal(t, config.ModeCookie, cfg.Mode)
	require.Equal(t, "/", cfg.Routes.Home)
	require.Equal(t, "/login", cfg.Routes.Login)
	require.Equal(t, config.DefaultEndpoints(), cfg.Endpoints)
	require.Equal(t, config.DefaultCSRF(), cfg.CSRF)
}

func TestNormalizeKeepsOverrides(t *testing.T) {
	cfg := config.AuthConfig{
		BaseURL:   "http://localhost:8080",
		Mode:      "TOKEN",
		Endpoints: config.Endpoints{Me: "/users/me"},
		CSRF:      config.CSRF{HeaderName: "X-XSRF"},
	}.Normalize()

	require.Equal(t, config.ModeToken, cfg.Mode)
	require.Equal(t, "/users/me", cfg.Endpoints.Me)
	require.Equal(t, "/auth/login", cfg.Endpoints.Login)
	require.Equal(t, "X-XSRF", cfg.CSRF.HeaderName)
	require.Equal(t, config.DefaultAccessCSRFCookie, cfg.CSRF.AccessCookieName)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, config.AuthConfig{BaseURL: "https://api.example.com"}.Normalize().Validate())
	})
	t.Run("relative base url", func(t *testing.T) {
		err := config.AuthConfig{BaseURL: "/api"}.Normalize().Validate()
		require.ErrorIs(t, err, errors.ErrValidation)
	})
	t.Run("unknown mode", func(t *testing.T) {
		err := config.AuthConfig{BaseURL: "http://x", Mode: "magic"}.Normalize().Validate()
		require.ErrorIs(t, err, errors.ErrValidation)
	})
	t.Run("relative route", func(t *testing.T) {
		cfg := config.AuthConfig{BaseURL: "http://x", Routes: config.Routes{Login: "login"}}.Normalize()
		require.ErrorIs(t, cfg.Validate(), errors.ErrValidation)
	})
}

func TestAPIURL(t *testing.T) {
	cfg := config.AuthConfig{BaseURL: "http://localhost:8080", APIPrefix: "/api/"}.Normalize()
	require.Equal(t, "http://localhost:8080/api/auth/login", cfg.APIURL("/auth/login"))
	require.Equal(t, "http://localhost:8080/api/me", cfg.APIURL("me"))

	noPrefix := config.AuthConfig{BaseURL: "http://localhost:8080", APIPrefix: "/"}.Normalize()
	require.Equal(t, "http://localhost:8080/me", noPrefix.APIURL("/me"))
}

func TestRequestMatching(t *testing.T) {
	cfg := config.AuthConfig{BaseURL: "http://localhost:8080", APIPrefix: "/api"}.Normalize()

	require.True(t, cfg.IsAPIRequest(mustURL(t, "http://localhost:8080/api/me")))
	require.True(t, cfg.IsAPIRequest(mustURL(t, "http://LOCALHOST:8080/api")))
	require.False(t, cfg.IsAPIRequest(mustURL(t, "http://localhost:8080/apiary")))
	require.False(t, cfg.IsAPIRequest(mustURL(t, "http://evil.example.com/api/me")))
	require.False(t, cfg.IsAPIRequest(mustURL(t, "https://localhost:8080/api/me")))

	require.True(t, cfg.IsEndpoint(mustURL(t, "http://localhost:8080/api/me?x=1"), cfg.Endpoints.Me))
	require.False(t, cfg.IsEndpoint(mustURL(t, "http://localhost:8080/api/me/settings"), cfg.Endpoints.Me))

	require.True(t, cfg.IsIdentityIssuing(mustURL(t, "http://localhost:8080/api/auth/login")))
	require.True(t, cfg.IsIdentityIssuing(mustURL(t, "http://localhost:8080/api/auth/reset-password")))
	require.False(t, cfg.IsIdentityIssuing(mustURL(t, "http://localhost:8080/api/auth/refresh")))
}

func TestIsMutating(t *testing.T) {
	for _, m := range []string{"GET", "HEAD", "OPTIONS", "get"} {
		require.False(t, config.IsMutating(m), m)
	}
	for _, m := range []string{"POST", "PUT", "PATCH", "DELETE"} {
		require.True(t, config.IsMutating(m), m)
	}
}

func TestLoadAuthConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
baseURL: http://from-file:8080
apiPrefix: /v1
mode: token
routes:
  login: /signin
endpoints:
  me: /profile
`), 0o600))

	t.Run("file only", func(t *testing.T) {
		cfg, err := config.LoadAuthConfig(path, nil)
		require.NoError(t, err)
		require.Equal(t, "http://from-file:8080", cfg.BaseURL)
		require.Equal(t, "/v1", cfg.APIPrefix)
		require.Equal(t, config.ModeToken, cfg.Mode)
		require.Equal(t, "/signin", cfg.Routes.Login)
		require.Equal(t, "/", cfg.Routes.Home)
		require.Equal(t, "/profile", cfg.Endpoints.Me)
		require.Equal(t, "/auth/refresh", cfg.Endpoints.Refresh)
	})

	t.Run("changed flags override the file", func(t *testing.T) {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("base-url", "", "")
		flags.String("mode", "", "")
		flags.String("unrelated", "", "")
		require.NoError(t, flags.Parse([]string{"--base-url", "http://from-flag:9090", "--unrelated", "x"}))

		cfg, err := config.LoadAuthConfig(path, flags)
		require.NoError(t, err)
		require.Equal(t, "http://from-flag:9090", cfg.BaseURL)
		require.Equal(t, config.ModeToken, cfg.Mode)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadAuthConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		require.Error(t, err)
	})
}
