package guard

import (
	"net/url"
	"sync"
)

// Navigator is the application's router as seen by the authentication core.
type Navigator interface {
	Current() string
	Navigate(path string, query url.Values)
}

// History is an in-memory Navigator recording every location visited.
type History struct {
	mu      sync.RWMutex
	entries []string
}

var _ Navigator = (*History)(nil)

func NewHistory(start string) *History {
	return &History{entries: []string{start}}
}

func (h *History) Current() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entries[len(h.entries)-1]
}

func (h *History) Navigate(path string, query url.Values) {
	location := path
	if len(query) > 0 {
		location += "?" + query.Encode()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, location)
}

func (h *History) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.entries...)
}

// Visit runs the guards for path in order. The first denial navigates to its
// redirect instead; otherwise the navigator moves to path.
func Visit(nav Navigator, path string, guards ...Guard) Decision {
	for _, g := range guards {
		if d := g(path); !d.Allow {
			nav.Navigate(d.Redirect, d.Query)
			return d
		}
	}
	nav.Navigate(path, nil)
	return allow()
}
