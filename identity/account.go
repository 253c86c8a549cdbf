package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// Register creates an account. It never changes the session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := ValidateRegistration(req); err != nil {
		return err
	}
	return c.call(ctx, http.MethodPost, c.cfg.Endpoints.Register, req, &OKResponse{})
}

// ForgotPassword requests a reset link. The backend answers the same way
// whether or not the account exists, and failures carry only a generic message
// for the same reason. Show errors.ForgotPasswordMessage on success.
func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateForgotPassword(req); err != nil {
		return err
	}
	err := c.call(ctx, http.MethodPost, c.cfg.Endpoints.ForgotPassword, req, &OKResponse{})
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) {
		apiErr.Message = ""
	}
	return err
}

// ResetPassword sets a new password using the token from a reset link. An
// unknown, used or expired token fails with errors.ErrInvalidOrExpiredToken.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	req.Token = strings.TrimSpace(req.Token)
	if err := ValidateResetPassword(req); err != nil {
		return err
	}
	err := c.call(ctx, http.MethodPost, c.cfg.Endpoints.ResetPassword, req, &OKResponse{})
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		apiErr.Kind = errors.ErrInvalidOrExpiredToken
	}
	return err
}
