package credential

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// TokenStore persists the access token of a token mode session.
type TokenStore interface {
	Token() (*oauth2.Token, error) // nil, nil when empty
	SetToken(*oauth2.Token) error
	Clear() error
}

type MemoryTokenStore struct {
	mu    sync.RWMutex
	token *oauth2.Token
}

var _ TokenStore = (*MemoryTokenStore)(nil)

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil, nil
	}
	tok := *s.token
	return &tok, nil
}

func (s *MemoryTokenStore) SetToken(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok == nil {
		s.token = nil
		return nil
	}
	t := *tok
	s.token = &t
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.SetToken(nil)
}

// FileTokenStore keeps the token in a JSON file so it survives between command
// line invocations.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

var _ TokenStore = (*FileTokenStore)(nil)

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[FileTokenStore Token] reading %s", s.path)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, errors.Wrapf(err, "[FileTokenStore Token] decoding %s", s.path)
	}
	return &tok, nil
}

func (s *FileTokenStore) SetToken(tok *oauth2.Token) error {
	if tok == nil {
		return s.Clear()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(tok)
	if err != nil {
		return errors.Wrapf(err, "[FileTokenStore SetToken] encoding")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrapf(err, "[FileTokenStore SetToken] creating directory")
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrapf(err, "[FileTokenStore SetToken] writing %s", s.path)
	}
	return nil
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "[FileTokenStore Clear] removing %s", s.path)
	}
	return nil
}
