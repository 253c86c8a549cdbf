package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the verified access token claims
const ContextKeyClaims ContextKey = "claims"

// ClaimsFromContext returns the claims RequireAuth stored on the request.
func ClaimsFromContext(ctx context.Context) (*token.AccessClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.AccessClaims)
	return claims, ok
}

// RequireAuth is middleware that validates the access token, taken from the
// Authorization header when present and from the access cookie otherwise.
// Cookie credentials must be accompanied by the CSRF header on mutating methods.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			accessToken, fromCookie := bearerToken(r), false
			if accessToken == "" {
				if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
					accessToken, fromCookie = cookie.Value, true
				}
			}
			if accessToken == "" {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := s.accounts.Authenticate(accessToken)
			if err != nil {
				if errors.Is(err, errors.ErrTokenExpired) {
					writeMessage(w, http.StatusUnauthorized, "Session expired")
					return
				}
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if fromCookie && config.IsMutating(r.Method) {
				csrf := r.Header.Get(config.DefaultCSRFHeader)
				if subtle.ConstantTimeCompare([]byte(csrf), []byte(claims.CSRF)) != 1 {
					writeMessage(w, http.StatusUnauthorized, "Missing or invalid CSRF token")
					return
				}
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
