package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphabot-ai/bloglist/internal/auth"
	"github.com/alphabot-ai/bloglist/internal/fixtures"
	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store/sqlite"
)

type env struct {
	store  *sqlite.Store
	tokens *auth.Tokens
	blogs  *Blogs
	users  *Users
}

func newEnv(t *testing.T) *env {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := sqlite.Open(fmt.Sprintf("file:service_%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	tokens, err := auth.NewTokens("test secret")
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	return &env{
		store:  st,
		tokens: tokens,
		blogs:  NewBlogs(st, st, tokens),
		users:  NewUsers(st, auth.NewCredentials(st, bcrypt.MinCost), tokens),
	}
}

// signUp creates a user through the service and logs in as them.
func (e *env) signUp(t *testing.T, username string) (model.UserView, string) {
	t.Helper()
	ctx := context.Background()
	view, err := e.users.Create(ctx, UserInput{Username: username, Name: username + " name", Password: "salainen"})
	require.NoError(t, err)
	login, err := e.users.Login(ctx, username, "salainen")
	require.NoError(t, err)
	return view, login.Token
}

func (e *env) seedBlogs(t *testing.T) []model.Blog {
	t.Helper()
	var blogs []model.Blog
	for _, b := range fixtures.InitialBlogs() {
		blog := b
		require.NoError(t, e.store.InsertBlog(context.Background(), &blog))
		blogs = append(blogs, blog)
	}
	return blogs
}

func (e *env) blogCount(t *testing.T) int {
	t.Helper()
	blogs, err := e.store.ListBlogs(context.Background())
	require.NoError(t, err)
	return len(blogs)
}

func (e *env) userCount(t *testing.T) int {
	t.Helper()
	users, err := e.store.ListUsers(context.Background())
	require.NoError(t, err)
	return len(users)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
