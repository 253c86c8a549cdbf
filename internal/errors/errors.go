package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds surfaced by the authentication client. Every error returned by an
// identity operation matches exactly one of these through errors.Is.
var (
	ErrValidation            = errors.New("validation failed")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrConflict              = errors.New("conflict")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrTransport             = errors.New("transport failure")
	ErrUnknown               = errors.New("unknown failure")
)

// Backend errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrNotFound           = errors.New("not found")
)

// GenericMessage is shown whenever the backend supplied nothing usable.
const GenericMessage = "An error occurred. Please try again."

// ForgotPasswordMessage is the only feedback a forgot password request ever gives,
// so the response cannot reveal whether an account exists.
const ForgotPasswordMessage = "If this email is registered, a reset link has been sent."

// APIError is a non 2xx response from an identity endpoint.
type APIError struct {
	Status  int
	Message string
	Kind    error
	Method  string
	URL     string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// ValidationError rejects user input before it reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// KindForStatus maps an HTTP status onto a failure kind.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	}
	return ErrUnknown
}

// UserMessage returns text fit for display: the backend message when one was
// supplied, a generic message otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return GenericMessage
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import.
func New(text string) error {
	return errors.New(text)
}
