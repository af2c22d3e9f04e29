package account

import (
	"context"
	"errors"
)

// ErrUsernameTaken is returned by Create and Update on a duplicate username.
var ErrUsernameTaken = errors.New("username taken")

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
}
