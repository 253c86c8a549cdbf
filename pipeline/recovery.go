package pipeline

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-auth-client/guard"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// Refresher resolves an expired session. Concurrent callers must share one attempt.
type Refresher interface {
	Do(ctx context.Context) error
}

// Recovery turns a 401 from a protected API call into one shared refresh and a
// single retry of the request. When the refresh fails, or the retry fails in any
// way, the navigator is sent to the login route and the final outcome is
// returned to the caller.
//
// A failed refresh hands back the original 401 response, not the refresh error,
// so callers going through the identity client see errors.ErrUnauthorized.
//
// The refresh call, the profile fetch and the identity issuing endpoints are
// never recovered: a wrong password has to surface as a 401.
func Recovery(cfg config.AuthConfig, refresher Refresher, nav guard.Navigator, logger zerolog.Logger) Stage {
	return func(req *http.Request, next Next) (*http.Response, error) {
		resp, err := next(req)
		if err != nil || resp.StatusCode != http.StatusUnauthorized || !recoverable(cfg, req) {
			return resp, err
		}

		retry, ok := rewind(req)
		if !ok {
			logger.Warn().Str("method", req.Method).Str("path", req.URL.Path).Msg("request body cannot be replayed, not refreshing")
			return resp, nil
		}

		if refreshErr := refresher.Do(req.Context()); refreshErr != nil {
			if ctxErr := req.Context().Err(); ctxErr != nil {
				discard(resp)
				return nil, errors.Wrapf(ctxErr, "[pipeline Recovery] waiting for refresh")
			}
			logger.Info().Err(refreshErr).Str("path", req.URL.Path).Msg("session could not be refreshed")
			redirectToLogin(cfg, nav)
			return resp, nil
		}

		discard(resp)
		resp, err = next(retry)
		if err != nil || resp.StatusCode >= http.StatusBadRequest {
			redirectToLogin(cfg, nav)
		}
		return resp, err
	}
}

func recoverable(cfg config.AuthConfig, req *http.Request) bool {
	u := req.URL
	return cfg.IsAPIRequest(u) &&
		!cfg.IsEndpoint(u, cfg.Endpoints.Refresh) &&
		!cfg.IsEndpoint(u, cfg.Endpoints.Me) &&
		!cfg.IsIdentityIssuing(u)
}

// rewind returns a copy of req whose body can be sent again.
func rewind(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}

func redirectToLogin(cfg config.AuthConfig, nav guard.Navigator) {
	if nav == nil {
		return
	}
	current := nav.Current()
	if guard.IsRoute(current, cfg.Routes.Login) {
		return
	}
	d := guard.LoginRedirect(cfg.Routes, current)
	nav.Navigate(d.Redirect, d.Query)
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
