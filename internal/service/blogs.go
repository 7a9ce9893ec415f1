package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alphabot-ai/bloglist/internal/auth"
	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/stats"
	"github.com/alphabot-ai/bloglist/internal/store"
)

type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// BlogInput is the body of a create request. Likes is nil when absent.
type BlogInput struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  *int   `json:"likes"`
}

type Blogs struct {
	blogs  store.BlogStore
	users  store.UserStore
	tokens TokenVerifier
}

func NewBlogs(blogs store.BlogStore, users store.UserStore, tokens TokenVerifier) *Blogs {
	return &Blogs{blogs: blogs, users: users, tokens: tokens}
}

func (s *Blogs) List(ctx context.Context) ([]model.Blog, error) {
	return s.blogs.ListBlogs(ctx)
}

func (s *Blogs) Get(ctx context.Context, rawID string) (model.Blog, error) {
	id, err := model.ParseID(rawID)
	if err != nil {
		return model.Blog{}, ErrMalformedID
	}
	return s.blogs.GetBlog(ctx, id)
}

// Create stores a blog owned by the token's user and appends it to that
// user's list. The two writes are separate: when the append fails the blog
// stays stored and the error is returned.
func (s *Blogs) Create(ctx context.Context, token string, in BlogInput) (model.Blog, error) {
	identity, err := s.authenticate(token)
	if err != nil {
		return model.Blog{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return model.Blog{}, required("title")
	}
	if strings.TrimSpace(in.URL) == "" {
		return model.Blog{}, required("url")
	}
	blog := model.Blog{Title: in.Title, Author: in.Author, URL: in.URL}
	if in.Likes != nil {
		if *in.Likes < 0 {
			return model.Blog{}, invalid("likes", "likes must not be negative")
		}
		blog.Likes = *in.Likes
	}

	owner, err := s.users.GetUser(ctx, identity.ID)
	switch {
	case err == nil:
		blog.UserID = &owner.ID
		projection := owner.Owner()
		blog.Owner = &projection
	case errors.Is(err, store.ErrNotFound):
		// Tokens can outlive their user; the blog is stored without an owner.
	default:
		return model.Blog{}, err
	}

	if err := s.blogs.InsertBlog(ctx, &blog); err != nil {
		return model.Blog{}, err
	}
	if blog.UserID != nil {
		if err := s.users.AppendUserBlog(ctx, *blog.UserID, blog.ID); err != nil {
			return model.Blog{}, fmt.Errorf("append blog %s to user %s: %w", blog.ID.Hex(), blog.UserID.Hex(), err)
		}
	}
	return blog, nil
}

// Remove deletes a blog. Owned blogs can only be removed by their owner;
// ownerless blogs by any authenticated caller.
func (s *Blogs) Remove(ctx context.Context, token, rawID string) error {
	identity, err := s.authenticate(token)
	if err != nil {
		return err
	}
	id, err := model.ParseID(rawID)
	if err != nil {
		return ErrMalformedID
	}
	blog, err := s.blogs.GetBlog(ctx, id)
	if err != nil {
		return err
	}
	if blog.UserID != nil && *blog.UserID != identity.ID {
		return ErrForbidden
	}
	return s.blogs.DeleteBlog(ctx, id)
}

// Update applies the present fields of patch. It requires no token.
func (s *Blogs) Update(ctx context.Context, rawID string, patch model.BlogPatch) (model.Blog, error) {
	id, err := model.ParseID(rawID)
	if err != nil {
		return model.Blog{}, ErrMalformedID
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Blog{}, required("title")
	}
	if patch.URL != nil && strings.TrimSpace(*patch.URL) == "" {
		return model.Blog{}, required("url")
	}
	if patch.Likes != nil && *patch.Likes < 0 {
		return model.Blog{}, invalid("likes", "likes must not be negative")
	}
	return s.blogs.UpdateBlog(ctx, id, patch)
}

func (s *Blogs) Stats(ctx context.Context) (stats.Summary, error) {
	blogs, err := s.blogs.ListBlogs(ctx)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(blogs), nil
}

func (s *Blogs) authenticate(token string) (auth.Identity, error) {
	if token == "" {
		return auth.Identity{}, ErrUnauthorized
	}
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, ErrInvalidToken
	}
	return identity, nil
}
