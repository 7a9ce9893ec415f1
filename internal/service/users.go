package service

import (
	"context"
	"errors"
	"strings"

	"github.com/alphabot-ai/bloglist/internal/auth"
	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store"
)

type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// UserInput is the body of a sign-up request. Adult is nil when absent.
type UserInput struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Adult    *bool  `json:"adult"`
}

type Login struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type Users struct {
	users  store.UserStore
	creds  *auth.Credentials
	tokens TokenIssuer
}

func NewUsers(users store.UserStore, creds *auth.Credentials, tokens TokenIssuer) *Users {
	return &Users{users: users, creds: creds, tokens: tokens}
}

func (s *Users) Create(ctx context.Context, in UserInput) (model.UserView, error) {
	if strings.TrimSpace(in.Username) == "" {
		return model.UserView{}, required("username")
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.UserView{}, required("name")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return model.UserView{}, rejected("password", err)
	}
	if err := s.creds.CheckUnique(ctx, in.Username); err != nil {
		if errors.Is(err, auth.ErrDuplicateUsername) {
			return model.UserView{}, rejected("username", err)
		}
		return model.UserView{}, err
	}
	hash, err := s.creds.Hash(in.Password)
	if err != nil {
		return model.UserView{}, err
	}

	user := model.User{
		Username:     in.Username,
		Name:         in.Name,
		Adult:        true,
		PasswordHash: hash,
	}
	if in.Adult != nil {
		user.Adult = *in.Adult
	}
	if err := s.users.InsertUser(ctx, &user); err != nil {
		// A concurrent sign-up got past CheckUnique; the store index caught it.
		if errors.Is(err, store.ErrDuplicateUsername) {
			return model.UserView{}, rejected("username", auth.ErrDuplicateUsername)
		}
		return model.UserView{}, err
	}
	return user.View(), nil
}

func (s *Users) List(ctx context.Context) ([]model.UserView, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]model.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views, nil
}

func (s *Users) Login(ctx context.Context, username, password string) (Login, error) {
	user, err := s.creds.Authenticate(ctx, username, password)
	if err != nil {
		return Login{}, err
	}
	token, err := s.tokens.Issue(auth.Identity{ID: user.ID, Username: user.Username})
	if err != nil {
		return Login{}, err
	}
	return Login{Token: token, Username: user.Username, Name: user.Name}, nil
}
