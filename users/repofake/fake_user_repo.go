package fakeuserrepo

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // normalized email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[users.NormalizeEmail(user.Email)]; ok {
		return errors.Wrapf(errors.ErrUserExists, "[FakeUserRepo Create] %s", user.Email)
	}
	ur.store(user)
	return nil
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if id, ok := ur.emailIds[users.NormalizeEmail(user.Email)]; ok && user.ID == "" {
		user.ID = id
	}
	ur.store(user)
	return nil
}

// store keeps a copy of user. Callers must hold the write lock.
func (ur *FakeUserRepo) store(user *users.User) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[users.NormalizeEmail(user.Email)] = user.ID
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUserNotFound, "[FakeUserRepo GetByEmail] %s", email)
	}
	user := *ur.users[id]
	return &user, nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUserNotFound, "[FakeUserRepo GetByID] %s", id)
	}
	user := *stored
	return &user, nil
}

func (ur *FakeUserRepo) SetPassword(email, passwordHash string) error {
	return ur.update(email, func(u *users.User) { u.PasswordHash = passwordHash })
}

func (ur *FakeUserRepo) SetLastLogin(email string, at time.Time) error {
	return ur.update(email, func(u *users.User) { u.LastLogin = at })
}

func (ur *FakeUserRepo) update(email string, fn func(*users.User)) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return errors.Wrapf(errors.ErrUserNotFound, "[FakeUserRepo update] %s", email)
	}
	fn(ur.users[id])
	return nil
}
