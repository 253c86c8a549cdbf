// Package accounts is the account and session logic behind the mock identity backend.
package accounts

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-auth-client/internal/config"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/jrsteele09/go-auth-client/token/refresh"
	"github.com/jrsteele09/go-auth-client/token/reset"
	"github.com/jrsteele09/go-auth-client/users"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users   users.UserRepo // Repository for user data
	Refresh refresh.Repo   // Repository for refresh token metadata
	Resets  reset.Store    // Store for single use password reset tokens
}

// Session is what a successful login or refresh hands back to the transport layer.
type Session struct {
	AccessToken string
	Access      *token.AccessClaims
	Refresh     *refresh.StoredRefreshToken
	User        *users.User
}

// RegisterParams are the fields a new account is created from.
type RegisterParams struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Service implements login, registration, refresh and password recovery.
type Service struct {
	repos        Repos
	config       config.TokenConfig
	signer       token.Signer
	issuer       *token.Issuer
	refresh      *refresh.Manager
	doubleSubmit bool
	nowTime      func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithDoubleSubmit requires the refresh CSRF value to accompany every refresh.
func WithDoubleSubmit() ServiceOption {
	return func(s *Service) {
		s.doubleSubmit = true
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, cfg config.TokenConfig, signer token.Signer, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Refresh == nil {
		return nil, errors.New("[NewService] Refresh repo is required")
	}
	if repos.Resets == nil {
		return nil, errors.New("[NewService] Resets store is required")
	}
	if signer == nil {
		return nil, errors.New("[NewService] signer is required")
	}

	s := &Service{
		repos:   repos,
		config:  cfg,
		signer:  signer,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.issuer = token.NewIssuer(signer, cfg, token.WithNowTime(s.nowTime))
	s.refresh = refresh.NewManager(repos.Refresh, cfg, refresh.WithNowTime(s.nowTime))
	return s, nil
}

// Seed creates the user when the email is not registered yet.
func (s *Service) Seed(params RegisterParams) error {
	if _, err := s.repos.Users.GetByEmail(params.Email); err == nil {
		return nil
	}
	_, err := s.createUser(params)
	return err
}

// Login checks the credentials and starts a new session. Unknown emails and
// wrong passwords both fail with ErrInvalidCredentials.
func (s *Service) Login(email, password string) (*Session, error) {
	user, err := s.repos.Users.GetByEmail(email)
	if err != nil || !user.CheckPassword(password) {
		return nil, errors.Wrap(autherrors.ErrInvalidCredentials, "[Service Login]")
	}
	if err := s.repos.Users.SetLastLogin(user.Email, s.nowTime()); err != nil {
		return nil, errors.Wrap(err, "[Service Login] recording last login")
	}

	rt, err := s.refresh.Create(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service Login] creating refresh token")
	}
	return s.session(user, rt)
}

// Register creates a new account. It does not log the user in.
func (s *Service) Register(params RegisterParams) (*users.User, error) {
	params.Email = strings.TrimSpace(params.Email)
	params.FirstName = strings.TrimSpace(params.FirstName)
	params.LastName = strings.TrimSpace(params.LastName)
	if params.Email == "" || params.FirstName == "" || params.LastName == "" || params.Password == "" {
		return nil, &autherrors.ValidationError{Field: "body", Message: "Missing fields"}
	}
	if err := users.ValidatePassword(params.Password); err != nil {
		return nil, &autherrors.ValidationError{Field: "password", Message: err.Error()}
	}
	return s.createUser(params)
}

func (s *Service) createUser(params RegisterParams) (*users.User, error) {
	hash, err := users.HashPassword(params.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service createUser] hashing password")
	}
	user := &users.User{
		ID:           uuid.New().String(),
		Email:        params.Email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		DateJoined:   s.nowTime(),
	}
	if err := s.repos.Users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Refresh exchanges a valid refresh token for a new session. The refresh token
// is rotated. With double submit enabled csrf must match the value issued with it.
func (s *Service) Refresh(refreshToken, csrf string) (*Session, error) {
	rt, err := s.refresh.Validate(refreshToken)
	if err != nil {
		return nil, err
	}
	if s.doubleSubmit && subtle.ConstantTimeCompare([]byte(rt.CSRF), []byte(csrf)) != 1 {
		return nil, autherrors.Wrapf(autherrors.ErrInvalidToken, "[Service Refresh] csrf mismatch")
	}
	user, err := s.repos.Users.GetByID(rt.UserID)
	if err != nil {
		_ = s.refresh.Delete(refreshToken)
		return nil, autherrors.Wrapf(autherrors.ErrInvalidToken, "[Service Refresh] %v", err)
	}
	next, err := s.refresh.Create(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service Refresh] rotating refresh token")
	}
	return s.session(user, next)
}

// Logout forgets the refresh token. Unknown tokens are ignored.
func (s *Service) Logout(refreshToken string) {
	if refreshToken != "" {
		_ = s.refresh.Delete(refreshToken)
	}
}

// ForgotPassword stores a reset token for a registered email and returns the
// link to send. Unknown emails return an empty link and no error.
func (s *Service) ForgotPassword(ctx context.Context, email, linkBase string) (string, error) {
	user, err := s.repos.Users.GetByEmail(email)
	if err != nil {
		return "", nil
	}
	t, err := reset.New(user.Email, s.config.GetResetTokenLength(), s.config.GetResetTokenExpiry())
	if err != nil {
		return "", err
	}
	t.ExpiresAt = s.nowTime().Add(s.config.GetResetTokenExpiry())
	if err := s.repos.Resets.Save(ctx, t); err != nil {
		return "", errors.Wrap(err, "[Service ForgotPassword] saving reset token")
	}
	return linkBase + "?token=" + t.Token, nil
}

// ResetPassword consumes the reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, resetToken, password string) error {
	if err := users.ValidatePassword(password); err != nil {
		return &autherrors.ValidationError{Field: "password", Message: err.Error()}
	}
	t, err := s.repos.Resets.Consume(ctx, resetToken)
	if err != nil {
		return err
	}
	if _, err := s.repos.Users.GetByEmail(t.Email); err != nil {
		return autherrors.Wrapf(autherrors.ErrInvalidToken, "[Service ResetPassword] account gone")
	}
	hash, err := users.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "[Service ResetPassword] hashing password")
	}
	return s.repos.Users.SetPassword(t.Email, hash)
}

// Authenticate verifies an access token.
func (s *Service) Authenticate(accessToken string) (*token.AccessClaims, error) {
	return s.issuer.Parse(accessToken)
}

func (s *Service) Profile(userID string) (*users.User, error) {
	return s.repos.Users.GetByID(userID)
}

// UpdateProfile changes the display names of a user. Empty values are kept.
func (s *Service) UpdateProfile(userID, firstName, lastName string) (*users.User, error) {
	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(firstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(lastName); v != "" {
		user.LastName = v
	}
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) session(user *users.User, rt *refresh.StoredRefreshToken) (*Session, error) {
	accessToken, claims, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: accessToken,
		Access:      claims,
		Refresh:     rt,
		User:        user,
	}, nil
}
