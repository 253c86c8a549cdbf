package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/sessions"
)

// Login exchanges credentials for a session credential. It does not load the
// profile or touch the session state; call FetchProfile afterwards.
func (c *Client) Login(ctx context.Context, req LoginRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateLogin(req); err != nil {
		return err
	}

	var resp LoginResponse
	if err := c.call(ctx, http.MethodPost, c.cfg.Endpoints.Login, req, &resp); err != nil {
		return err
	}
	if resp.AccessToken != "" {
		if err := c.carrier.Establish(resp.AccessToken); err != nil {
			return errors.Wrapf(err, "[identity Login] storing access token")
		}
	}
	c.profile.invalidate()
	return nil
}

// Logout ends the session. The local session is cleared even when the network
// call fails, so Logout never returns an error for it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.call(ctx, http.MethodPost, c.cfg.Endpoints.Logout, struct{}{}, nil); err != nil {
		c.logger.Warn().Err(err).Msg("logout request failed, clearing local session anyway")
	}
	c.clearSession()
	return nil
}

// Refresh asks the backend for a new credential. Failure ends the session.
// Callers should go through the refresh coordinator rather than call this directly.
func (c *Client) Refresh(ctx context.Context) error {
	var resp RefreshResponse
	if err := c.call(ctx, http.MethodPost, c.cfg.Endpoints.Refresh, struct{}{}, &resp); err != nil {
		c.clearSession()
		return err
	}
	if resp.AccessToken != "" {
		if err := c.carrier.Establish(resp.AccessToken); err != nil {
			c.clearSession()
			return errors.Wrapf(err, "[identity Refresh] storing access token")
		}
	}
	c.state.Extend(c.carrier.Expiry())
	return nil
}

// Bootstrap resolves the session at start up by loading the profile. An
// unauthenticated visitor is not an error. The state is never left pending.
func (c *Client) Bootstrap(ctx context.Context) error {
	if c.state.Snapshot().IsAuthenticated() {
		return nil
	}
	c.state.MarkPending()
	profile, err := c.FetchProfile(ctx)
	if c.state.Snapshot().Status == sessions.StatusUnknown {
		if err == nil {
			c.state.SetAuthenticated(profile, c.carrier.Expiry())
		} else {
			c.state.SetUnauthenticated()
		}
	}
	if err == nil || errors.Is(err, errors.ErrUnauthorized) {
		return nil
	}
	return err
}

func (c *Client) clearSession() {
	c.carrier.Clear()
	c.profile.invalidate()
	c.state.Reset()
}
