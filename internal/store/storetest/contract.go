// Package storetest holds the behavioural contract every store backend must satisfy.
package storetest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/bloglist/internal/fixtures"
	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store"
)

// Contract runs against a fresh, empty store for every subtest.
type Contract struct {
	Subject func(testing.TB) store.Store
}

func (c Contract) Test(t *testing.T) {
	t.Run("InsertBlog", c.testInsertBlog)
	t.Run("GetBlog", c.testGetBlog)
	t.Run("ListBlogs", c.testListBlogs)
	t.Run("UpdateBlog", c.testUpdateBlog)
	t.Run("DeleteBlog", c.testDeleteBlog)
	t.Run("InsertUser", c.testInsertUser)
	t.Run("FindUser", c.testFindUser)
	t.Run("ListUsers", c.testListUsers)
	t.Run("AppendUserBlog", c.testAppendUserBlog)
}

func (c Contract) subject(t *testing.T) store.Store {
	t.Helper()
	st := c.Subject(t)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func insertUser(t *testing.T, st store.Store) model.User {
	t.Helper()
	seed := fixtures.RandomUser()
	u := model.User{Username: seed.Username, Name: seed.Name, Adult: true, PasswordHash: "hash"}
	require.NoError(t, st.InsertUser(context.Background(), &u))
	return u
}

func (c Contract) testInsertBlog(t *testing.T) {
	ctx := context.Background()
	st := c.subject(t)

	blog := fixtures.RandomBlog()
	require.NoError(t, st.InsertBlog(ctx, &blog))
	require.False(t, blog.ID.IsZero(), "expected store-assigned id")

	other := fixtures.RandomBlog()
	require.NoError(t, st.InsertBlog(ctx, &other))
	require.NotEqual(t, blog.ID, other.ID)
}

func (c Contract) testGetBlog(t *testing.T) {
	ctx := context.Background()
	st := c.subject(t)

	t.Run("missing", func(t *testing.T) {
		_, err := st.GetBlog(ctx, model.NewID())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ownerless", func(t *testing.T) {
		blog := fixtures.RandomBlog()
		require.NoError(t, st.InsertBlog(ctx, &blog))

		got, err := st.GetBlog(ctx, blog.ID)
		require.NoError(t, err)
		assert.Equal(t, blog.Title, got.Title)
		assert.Equal(t, blog.Author, got.Author)
		assert.Equal(t, blog.URL, got.URL)
		assert.Equal(t, blog.Likes, got.Likes)
		assert.Nil(t, got.UserID)
		assert.Nil(t, got.Owner)
	})

	t.Run("owned", func(t *testing.T) {
		u := insertUser(t, st)
		blog := fixtures.RandomBlog()
		blog.UserID = &u.ID
		require.NoError(t, st.InsertBlog(ctx, &blog))

		got, err := st.GetBlog(ctx, blog.ID)
		require.NoError(t, err)
		require.NotNil(t, got.UserID)
		assert.Equal(t, u.ID, *got.UserID)
		require.NotNil(t, got.Owner)
		assert.Equal(t, model.Owner{ID: u.ID, Username: u.Username, Name: u.Name}, *got.Owner)
	})
}

func (c Contract) testListBlogs(t *testing.T) {
	ctx := context.Background()
	st := c.subject(t)

	empty, err := st.ListBlogs(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	var ids []model.ID
	for _, b := range fixtures.InitialBlogs() {
		blog := b
		require.NoError(t, st.InsertBlog(ctx, &blog))
		ids = append(ids, blog.ID)
	}

	first, err := st.ListBlogs(ctx)
	require.NoError(t, err)
	require.Len(t, first, len(ids))
	for i, b := range first {
		assert.Equal(t, ids[i], b.ID, "blogs are listed in insertion order")
	}

	second, err := st.ListBlogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func (c Contract) testUpdateBlog(t *testing.T) {
	ctx := context.Background()
	st := c.subject(t)

	blog := model.Blog{Title: "T", Author: "A", URL: "u", Likes: 5}
	require.NoError(t, st.InsertBlog(ctx, &blog))

	t.Run("partial", func(t *testing.T) {
		zero := 0
		got, err := st.UpdateBlog(ctx, blog.ID, model.BlogPatch{Likes: &zero})
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)
		assert.Equal(t, "A", got.Author)
		assert.Equal(t, "u", got.URL)
		assert.Equal(t, 0, got.Likes)
	})

	t.Run("all fields", func(t *testing.T) {
		title, author, url, likes := "T2", "A2", "u2", 9
		got, err := st.UpdateBlog(ctx, blog.ID, model.BlogPatch{Title: &title, Author: &author, URL: &url, Likes: &likes})
		require.NoError(t, err)
		assert.Equal(t, model.Blog{ID: blog.ID, Title: title, Author: author, URL: url, Likes: likes}, got)

		stored, err := st.GetBlog(ctx, blog.ID)
		require.NoError(t, err)
		assert.Equal(t, got, stored)
	})

	t.Run("empty patch", func(t *testing.T) {
		before, err := st.GetBlog(ctx, blog.ID)
		require.NoError(t, err)
		got, err := st.UpdateBlog(ctx, blog.ID, model.BlogPatch{})
		require.NoError(t, err)
		assert.Equal(t, before, got)
	})

	t.Run("missing", func(t *testing.T) {
		likes := 1
		_, err := st.UpdateBlog(ctx, model.NewID(), model.BlogPatch{Likes: &likes})
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func (c Contract) testDeleteBlog(t *testing.T) {
	ctx := context.Background()
	st := c.subject(t)

	blog := fixtures.RandomBlog()
	require.NoError(t, st.InsertBlog(ctx, &blog))

	require.NoError(t, st.DeleteBlog(ctx, blog.ID))
	_, err := st.GetBlog(ctx, blog.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, st.DeleteBlog(ctx, blog.ID), store.ErrNotFound)
}

func (c Contract) testInsertUser(t *testing.T) {
	ctx := context.Background()
	st := c.subject(t)

	u := insertUser(t, st)
	require.False(t, u.ID.IsZero())

	dup := model.User{Username: u.Username, Name: "Other", PasswordHash: "hash"}
	require.ErrorIs(t, st.InsertUser(ctx, &dup), store.ErrDuplicateUsername)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	upper := model.User{Username: strings.ToUpper(u.Username), Name: "Case", PasswordHash: "hash"}
	require.NoError(t, st.InsertUser(ctx, &upper), "usernames are case-sensitive and distinct")
}

func (c Contract) testFindUser(t *testing.T) {
	ctx := context.Background()
	st := c.subject(t)

	u := insertUser(t, st)

	byName, err := st.FindUserByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, u.Name, byName.Name)
	assert.Equal(t, "hash", byName.PasswordHash)
	assert.True(t, byName.Adult)

	byID, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, byName, byID)

	_, err = st.FindUserByUsername(ctx, "no-such-user")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetUser(ctx, model.NewID())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func (c Contract) testListUsers(t *testing.T) {
	ctx := context.Background()
	st := c.subject(t)

	a := insertUser(t, st)
	minor := model.User{Username: "minor-" + a.Username, Name: "Minor", Adult: false, PasswordHash: "hash"}
	require.NoError(t, st.InsertUser(ctx, &minor))

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, a.ID, users[0].ID)
	assert.Equal(t, minor.ID, users[1].ID)
	assert.False(t, users[1].Adult)
	assert.Empty(t, users[0].Blogs)
}

func (c Contract) testAppendUserBlog(t *testing.T) {
	ctx := context.Background()
	st := c.subject(t)

	u := insertUser(t, st)
	first, second := fixtures.RandomBlog(), fixtures.RandomBlog()
	first.UserID, second.UserID = &u.ID, &u.ID
	require.NoError(t, st.InsertBlog(ctx, &first))
	require.NoError(t, st.InsertBlog(ctx, &second))

	require.NoError(t, st.AppendUserBlog(ctx, u.ID, first.ID))
	require.NoError(t, st.AppendUserBlog(ctx, u.ID, second.ID))

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{first.ID, second.ID}, got.Blogs)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, []model.ID{first.ID, second.ID}, users[0].Blogs)

	require.ErrorIs(t, st.AppendUserBlog(ctx, model.NewID(), first.ID), store.ErrNotFound)

	// Deleting a blog leaves the back-reference in place.
	require.NoError(t, st.DeleteBlog(ctx, first.ID))
	got, err = st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{first.ID, second.ID}, got.Blogs)
}
