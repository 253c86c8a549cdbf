package users

import "time"

// UserRepo stores users. Email lookups are case-insensitive.
type UserRepo interface {
	// Create adds a new user, failing with errors.ErrUserExists when the email is taken.
	Create(user *User) error
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	SetPassword(email, passwordHash string) error
	SetLastLogin(email string, at time.Time) error
}
