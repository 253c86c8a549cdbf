package sessions

import (
	"sync"
	"time"
)

// NowTimeFunc is used to decide whether an expiring session is still valid.
var NowTimeFunc = time.Now

type Status int

const (
	StatusUnauthenticated Status = iota
	StatusAuthenticated
	StatusUnknown // a session check is in flight
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnknown:
		return "unknown"
	}
	return "unauthenticated"
}

// Profile is the identity returned by the profile endpoint.
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	}
	return p.Email
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	Status    Status
	Profile   *Profile  // nil until a profile fetch succeeds
	ExpiresAt time.Time // zero when the credential carries no client side expiry
}

func (s Snapshot) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

func (s Snapshot) equal(o Snapshot) bool {
	if s.Status != o.Status || !s.ExpiresAt.Equal(o.ExpiresAt) {
		return false
	}
	if s.Profile == nil || o.Profile == nil {
		return s.Profile == o.Profile
	}
	return *s.Profile == *o.Profile
}

// State is the single observable session of a client. The zero value is not
// usable; create one with NewState.
type State struct {
	mu          sync.RWMutex
	current     Snapshot
	subscribers map[int]chan Snapshot
	nextID      int
	closed      bool
}

func NewState() *State {
	return &State{subscribers: make(map[int]chan Snapshot)}
}

// Snapshot returns the current session without blocking on any I/O. An
// authenticated session whose expiry has passed is reported as unauthenticated.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	snap := s.current
	s.mu.RUnlock()

	if snap.Status == StatusAuthenticated && !snap.ExpiresAt.IsZero() && !NowTimeFunc().Before(snap.ExpiresAt) {
		return Snapshot{Status: StatusUnauthenticated}
	}
	if snap.Profile != nil {
		p := *snap.Profile
		snap.Profile = &p
	}
	return snap
}

// MarkPending records that the session is being checked.
func (s *State) MarkPending() {
	s.set(Snapshot{Status: StatusUnknown})
}

// SetAuthenticated records a live session. profile may be nil.
func (s *State) SetAuthenticated(profile *Profile, expiresAt time.Time) {
	next := Snapshot{Status: StatusAuthenticated, ExpiresAt: expiresAt}
	if profile != nil {
		p := *profile
		next.Profile = &p
	}
	s.set(next)
}

// Extend moves the expiry of an authenticated session. It does nothing otherwise.
func (s *State) Extend(expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Status != StatusAuthenticated {
		return
	}
	next := s.current
	next.ExpiresAt = expiresAt
	s.setLocked(next)
}

func (s *State) SetUnauthenticated() {
	s.set(Snapshot{Status: StatusUnauthenticated})
}

// Reset returns the state to the value NewState starts with.
func (s *State) Reset() {
	s.set(Snapshot{})
}

// Subscribe returns a channel that receives the current snapshot followed by
// every change. Slow readers only ever see the latest value. cancel closes the
// channel.
func (s *State) Subscribe() (updates <-chan Snapshot, cancel func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch
	ch <- s.current
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close ends every subscription. The state remains readable.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *State) set(next Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(next)
}

func (s *State) setLocked(next Snapshot) {
	if s.current.equal(next) {
		return
	}
	s.current = next
	for _, ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}
