package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-client/accounts"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/errors"
)

const maxBodyBytes = 1 << 20

type okResponse struct {
	OK bool `json:"ok"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("[server writeJSON] failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func writeOK(w http.ResponseWriter, status int) {
	writeJSON(w, status, okResponse{OK: true})
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// setSessionCookies hands the session to the client. Cookie mode sets the
// HttpOnly token cookies and their readable CSRF companions; token mode only
// needs the refresh cookie since the access token travels in the body.
func (s *Server) setSessionCookies(w http.ResponseWriter, r *http.Request, session *accounts.Session) {
	refreshMaxAge := int(s.config.GetRefreshTokenExpiry() / time.Second)
	s.setCookie(w, r, RefreshTokenCookie, session.Refresh.Token, refreshMaxAge, true)

	if s.mode != config.ModeCookie {
		return
	}
	// The access cookie outlives its token so an expired token is reported as such.
	s.setCookie(w, r, AccessTokenCookie, session.AccessToken, refreshMaxAge, true)
	s.setCookie(w, r, config.DefaultAccessCSRFCookie, session.Access.CSRF, refreshMaxAge, false)
	s.setCookie(w, r, config.DefaultRefreshCSRFCookie, session.Refresh.CSRF, refreshMaxAge, false)
}

func (s *Server) clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		s.setCookie(w, r, name, "", -1, true)
	}
	for _, name := range []string{config.DefaultAccessCSRFCookie, config.DefaultRefreshCSRFCookie} {
		s.setCookie(w, r, name, "", -1, false)
	}
}

func (s *Server) setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: httpOnly,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
