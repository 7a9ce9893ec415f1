package auth

import (
	"context"
	"errors"

	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store"
)

var (
	ErrDuplicateUsername  = errors.New("username must be unique")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Credentials applies the password and username policy against the user store.
type Credentials struct {
	users store.UserStore
	cost  int
}

func NewCredentials(users store.UserStore, bcryptCost int) *Credentials {
	return &Credentials{users: users, cost: bcryptCost}
}

// Hash validates and hashes a new password.
func (c *Credentials) Hash(password string) (string, error) {
	return HashPassword(password, c.cost)
}

// CheckUnique fails with ErrDuplicateUsername when username is taken.
func (c *Credentials) CheckUnique(ctx context.Context, username string) error {
	_, err := c.users.FindUserByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrDuplicateUsername
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return err
	}
}

// Authenticate returns the user when password matches. Unknown users and
// wrong passwords are indistinguishable.
func (c *Credentials) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	user, err := c.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return user, nil
}
