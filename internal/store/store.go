package store

//go:generate mockgen -destination=mock/mock_store.go -package=mock_store github.com/alphabot-ai/bloglist/internal/store BlogStore,UserStore

import (
	"context"
	"errors"

	"github.com/alphabot-ai/bloglist/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("duplicate username")
)

type Store interface {
	BlogStore
	UserStore
	Close() error
}

// BlogStore persists blogs. Reads resolve the owner projection.
type BlogStore interface {
	InsertBlog(ctx context.Context, blog *model.Blog) error
	GetBlog(ctx context.Context, id model.ID) (model.Blog, error)
	ListBlogs(ctx context.Context) ([]model.Blog, error)
	UpdateBlog(ctx context.Context, id model.ID, patch model.BlogPatch) (model.Blog, error)
	DeleteBlog(ctx context.Context, id model.ID) error
}

type UserStore interface {
	InsertUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.ID) (model.User, error)
	FindUserByUsername(ctx context.Context, username string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	AppendUserBlog(ctx context.Context, userID, blogID model.ID) error
}
