package identity

import (
	"net/mail"
	"strings"

	"github.com/jrsteele09/go-auth-client/internal/errors"
)

const (
	minLoginPassword = 4
	minNewPassword   = 8
	minNameLength    = 2
)

func invalid(field, message string) error {
	return &errors.ValidationError{Field: field, Message: message}
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email", "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(addr.Address, "@") {
		return invalid("email", "A valid email is required")
	}
	return nil
}

func validateNewPassword(password, confirm string) error {
	if len(password) < minNewPassword {
		return invalid("password", "Password must be at least 8 characters")
	}
	if password != confirm {
		return invalid("confirmPassword", "Passwords do not match")
	}
	return nil
}

func ValidateLogin(req LoginRequest) error {
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if len(req.Password) < minLoginPassword {
		return invalid("password", "Password must be at least 4 characters")
	}
	return nil
}

func ValidateRegistration(req RegisterRequest) error {
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if len(strings.TrimSpace(req.FirstName)) < minNameLength {
		return invalid("firstName", "First name must be at least 2 characters")
	}
	if len(strings.TrimSpace(req.LastName)) < minNameLength {
		return invalid("lastName", "Last name must be at least 2 characters")
	}
	return validateNewPassword(req.Password, req.ConfirmPassword)
}

func ValidateForgotPassword(req ForgotPasswordRequest) error {
	return validateEmail(req.Email)
}

func ValidateResetPassword(req ResetPasswordRequest) error {
	if strings.TrimSpace(req.Token) == "" {
		return invalid("token", "Reset link is missing its token")
	}
	return validateNewPassword(req.Password, req.ConfirmPassword)
}
