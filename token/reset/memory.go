package reset

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps reset tokens in process.
type MemoryStore struct {
	tokens  map[string]*Token
	nowTime func() time.Time
	lock    sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens:  make(map[string]*Token),
		nowTime: NowTimeFunc,
	}
}

// WithNowTime replaces the clock used for expiry checks.
func (s *MemoryStore) WithNowTime(nowFunc func() time.Time) *MemoryStore {
	s.nowTime = nowFunc
	return s
}

func (s *MemoryStore) Save(_ context.Context, token *Token) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.nowTime()
	for k, t := range s.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(s.tokens, k)
		}
	}
	stored := *token
	s.tokens[token.Token] = &stored
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, token string) (*Token, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return nil, invalid("MemoryStore Consume")
	}
	delete(s.tokens, token)
	if !s.nowTime().Before(t.ExpiresAt) {
		return nil, invalid("MemoryStore Consume")
	}
	return t, nil
}
