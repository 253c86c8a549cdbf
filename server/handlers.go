package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-client/accounts"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginTokenResponse struct {
	AccessToken string    `json:"accessToken"`
	User        loginUser `json:"user"`
}

type loginUser struct {
	Email string `json:"email"`
}

type refreshTokenResponse struct {
	OK          bool   `json:"ok"`
	AccessToken string `json:"accessToken"`
}

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type profileResponse struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type updateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type sessionResponse struct {
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginHandler checks the credentials and starts a session.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := decodeJSON(r, &body); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		session, err := s.accounts.Login(body.Email, body.Password)
		s.metrics.logins.WithLabelValues(result(err)).Inc()
		if err != nil {
			if errors.Is(err, errors.ErrInvalidCredentials) {
				writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}
			log.Err(err).Msg("[LoginHandler] login failed")
			writeMessage(w, http.StatusInternalServerError, "Login failed")
			return
		}

		s.setSessionCookies(w, r, session)
		if s.mode == config.ModeToken {
			writeJSON(w, http.StatusOK, loginTokenResponse{
				AccessToken: session.AccessToken,
				User:        loginUser{Email: session.User.Email},
			})
			return
		}
		writeOK(w, http.StatusOK)
	}
}

// LogoutHandler forgets the refresh token and expires every session cookie. It always succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
			s.accounts.Logout(cookie.Value)
		}
		s.clearSessionCookies(w, r)
		writeOK(w, http.StatusOK)
	}
}

// RefreshHandler exchanges the refresh cookie for a new access token. In cookie
// mode the refresh CSRF value must be echoed in the CSRF header.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(RefreshTokenCookie)
		if err != nil {
			s.metrics.refreshes.WithLabelValues(result(err)).Inc()
			writeMessage(w, http.StatusUnauthorized, "Missing refresh token")
			return
		}

		session, err := s.accounts.Refresh(cookie.Value, r.Header.Get(config.DefaultCSRFHeader))
		s.metrics.refreshes.WithLabelValues(result(err)).Inc()
		if err != nil {
			if errors.Is(err, errors.ErrTokenExpired) {
				writeMessage(w, http.StatusUnauthorized, "Session expired")
				return
			}
			writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}

		s.setSessionCookies(w, r, session)
		if s.mode == config.ModeToken {
			writeJSON(w, http.StatusOK, refreshTokenResponse{OK: true, AccessToken: session.AccessToken})
			return
		}
		writeOK(w, http.StatusOK)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerRequest
		if err := decodeJSON(r, &body); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		_, err := s.accounts.Register(accounts.RegisterParams{
			Email:     body.Email,
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Password:  body.Password,
		})
		s.metrics.registrations.WithLabelValues(result(err)).Inc()
		switch {
		case err == nil:
			writeOK(w, http.StatusCreated)
		case errors.Is(err, errors.ErrUserExists):
			writeMessage(w, http.StatusConflict, "Email already in use")
		case errors.Is(err, errors.ErrValidation):
			writeMessage(w, http.StatusBadRequest, errors.UserMessage(err))
		default:
			log.Err(err).Msg("[RegisterHandler] registration failed")
			writeMessage(w, http.StatusInternalServerError, "Registration failed")
		}
	}
}

// ForgotPasswordHandler always answers {ok:true} so the response never reveals
// whether the email is registered. The reset link is logged instead of mailed.
func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body forgotPasswordRequest
		if err := decodeJSON(r, &body); err == nil && body.Email != "" {
			link, err := s.accounts.ForgotPassword(r.Context(), body.Email, s.config.GetResetLinkBase())
			if err != nil {
				log.Err(err).Msg("[ForgotPasswordHandler] failed to issue reset token")
			} else if link != "" {
				s.mailer(body.Email, link)
			}
		}
		writeOK(w, http.StatusOK)
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body resetPasswordRequest
		if err := decodeJSON(r, &body); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		err := s.accounts.ResetPassword(r.Context(), body.Token, body.Password)
		s.metrics.resets.WithLabelValues(result(err)).Inc()
		switch {
		case err == nil:
			writeOK(w, http.StatusOK)
		case errors.Is(err, errors.ErrValidation):
			writeMessage(w, http.StatusBadRequest, errors.UserMessage(err))
		case errors.Is(err, errors.ErrInvalidToken):
			writeMessage(w, http.StatusBadRequest, "Invalid or expired link")
		default:
			log.Err(err).Msg("[ResetPasswordHandler] reset failed")
			writeMessage(w, http.StatusInternalServerError, "Password reset failed")
		}
	}
}

// MeHandler returns the profile of the authenticated user.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		user, err := s.accounts.Profile(claims.UserID)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		})
	}
}

func (s *Server) UpdateMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateProfileRequest
		if err := decodeJSON(r, &body); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		claims, _ := ClaimsFromContext(r.Context())
		user, err := s.accounts.UpdateProfile(claims.UserID, body.FirstName, body.LastName)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		})
	}
}

// SessionHandler describes the access token the request was made with.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		writeJSON(w, http.StatusOK, sessionResponse{
			Email:     claims.Email,
			IssuedAt:  claims.IssuedAt,
			ExpiresAt: claims.ExpiresAt,
		})
	}
}
