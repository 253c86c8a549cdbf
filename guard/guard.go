// Package guard decides whether navigation to a location may proceed given the
// current session.
package guard

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/sessions"
)

// ReturnURLParam carries the location a user was sent away from.
const ReturnURLParam = "returnUrl"

// Decision is the outcome of a guard. When Allow is false the caller should
// navigate to Redirect with Query instead.
type Decision struct {
	Allow    bool
	Redirect string
	Query    url.Values
}

// URL renders the redirect target, empty when navigation is allowed.
func (d Decision) URL() string {
	if d.Allow {
		return ""
	}
	if len(d.Query) == 0 {
		return d.Redirect
	}
	return d.Redirect + "?" + d.Query.Encode()
}

// Guard evaluates a navigation to path synchronously.
type Guard func(path string) Decision

// SessionReader is satisfied by *sessions.State.
type SessionReader interface {
	Snapshot() sessions.Snapshot
}

func allow() Decision {
	return Decision{Allow: true}
}

// Protected admits authenticated sessions and sends everyone else to the login
// route, remembering where they were going.
func Protected(routes config.Routes, state SessionReader) Guard {
	return func(path string) Decision {
		if state.Snapshot().IsAuthenticated() {
			return allow()
		}
		return LoginRedirect(routes, path)
	}
}

// GuestOnly admits visitors without a session and sends authenticated users home.
func GuestOnly(routes config.Routes, state SessionReader) Guard {
	return func(string) Decision {
		if !state.Snapshot().IsAuthenticated() {
			return allow()
		}
		return Decision{Redirect: routes.Home}
	}
}

// LoginRedirect builds the redirect to the login route. The return location is
// dropped when it is the login route itself so redirects cannot loop.
func LoginRedirect(routes config.Routes, returnTo string) Decision {
	d := Decision{Redirect: routes.Login}
	if returnTo != "" && !IsRoute(returnTo, routes.Login) {
		d.Query = url.Values{ReturnURLParam: {returnTo}}
	}
	return d
}

// SafeReturnURL accepts a return location only if it is a local path outside the
// login route. Anything else falls back to the home route.
func SafeReturnURL(raw string, routes config.Routes) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, `/\`) || IsRoute(raw, routes.Login) {
		return routes.Home
	}
	return raw
}

// IsRoute reports whether location, ignoring query and fragment, is route.
func IsRoute(location, route string) bool {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	return strings.TrimRight(location, "/") == strings.TrimRight(route, "/")
}
