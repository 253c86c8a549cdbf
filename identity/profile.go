package identity

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/go-auth-client/sessions"
)

// profileMemo caches the profile of the current credential. Concurrent fetches
// share one call; invalidate starts a new generation whose fetches ignore any
// call still in flight from the previous one.
type profileMemo struct {
	mu         sync.Mutex
	generation uint64
	profile    *sessions.Profile
	group      singleflight.Group
}

func (m *profileMemo) invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.profile = nil
}

// FetchProfile returns the profile of the current session, loading it at most
// once per credential. Success marks the session authenticated; failure clears it.
// A cached profile is dropped once the credential has expired.
func (c *Client) FetchProfile(ctx context.Context) (*sessions.Profile, error) {
	m := &c.profile
	m.mu.Lock()
	if m.profile != nil && expired(c.carrier.Expiry()) {
		m.generation++
		m.profile = nil
	}
	if m.profile != nil {
		p := *m.profile
		m.mu.Unlock()
		return &p, nil
	}
	generation := m.generation
	m.mu.Unlock()

	result := m.group.DoChan(strconv.FormatUint(generation, 10), func() (interface{}, error) {
		var profile sessions.Profile
		err := c.call(context.WithoutCancel(ctx), http.MethodGet, c.cfg.Endpoints.Me, nil, &profile)

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.generation != generation {
			// A login or logout happened meanwhile; this result belongs to the old credential.
			if err != nil {
				return nil, err
			}
			return &profile, nil
		}
		if err != nil {
			m.profile = nil
			c.state.SetUnauthenticated()
			return nil, err
		}
		m.profile = &profile
		c.state.SetAuthenticated(&profile, c.carrier.Expiry())
		return &profile, nil
	})

	select {
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *res.Val.(*sessions.Profile)
		return &p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func expired(expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !sessions.NowTimeFunc().Before(expiresAt)
}
