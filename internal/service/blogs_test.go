package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/bloglist/internal/auth"
	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store"
	mock_store "github.com/alphabot-ai/bloglist/internal/store/mock"
)

func TestCreateBlog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user, token := e.signUp(t, "mluukkai")

	blog, err := e.blogs.Create(ctx, token, BlogInput{Title: "T", URL: "u"})
	require.NoError(t, err)
	assert.False(t, blog.ID.IsZero())
	assert.Equal(t, 0, blog.Likes, "likes default to zero")
	require.NotNil(t, blog.Owner)
	assert.Equal(t, model.Owner{ID: user.ID, Username: "mluukkai", Name: "mluukkai name"}, *blog.Owner)

	stored, err := e.blogs.Get(ctx, blog.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, blog, stored)

	owner, err := e.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{blog.ID}, owner.Blogs)
}

func TestCreateBlogKeepsLikes(t *testing.T) {
	e := newEnv(t)
	_, token := e.signUp(t, "root")

	blog, err := e.blogs.Create(context.Background(), token, BlogInput{Title: "T", Author: "A", URL: "u", Likes: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, blog.Likes)
	assert.Equal(t, "A", blog.Author)
}

func TestCreateBlogValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, token := e.signUp(t, "root")
	e.seedBlogs(t)
	before := e.blogCount(t)

	cases := map[string]struct {
		input BlogInput
		field string
	}{
		"missing title":  {BlogInput{URL: "u"}, "title"},
		"blank title":    {BlogInput{Title: "   ", URL: "u"}, "title"},
		"missing url":    {BlogInput{Title: "T"}, "url"},
		"negative likes": {BlogInput{Title: "T", URL: "u", Likes: intPtr(-1)}, "likes"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.blogs.Create(ctx, token, tc.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
	assert.Equal(t, before, e.blogCount(t))
}

func TestCreateBlogRequiresToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.blogs.Create(ctx, "", BlogInput{Title: "T", URL: "u"})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.blogs.Create(ctx, "not.a.token", BlogInput{Title: "T", URL: "u"})
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := auth.NewTokens("someone else's secret")
	require.NoError(t, err)
	forged, err := other.Issue(auth.Identity{ID: model.NewID(), Username: "root"})
	require.NoError(t, err)
	_, err = e.blogs.Create(ctx, forged, BlogInput{Title: "T", URL: "u"})
	require.ErrorIs(t, err, ErrInvalidToken)

	assert.Equal(t, 0, e.blogCount(t))
}

func TestCreateBlogUnknownUser(t *testing.T) {
	e := newEnv(t)
	token, err := e.tokens.Issue(auth.Identity{ID: model.NewID(), Username: "ghost"})
	require.NoError(t, err)

	blog, err := e.blogs.Create(context.Background(), token, BlogInput{Title: "T", URL: "u"})
	require.NoError(t, err)
	assert.Nil(t, blog.UserID)
	assert.Nil(t, blog.Owner)
	assert.Equal(t, 1, e.blogCount(t))
}

func TestListBlogs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seeded := e.seedBlogs(t)

	first, err := e.blogs.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, len(seeded))
	for _, b := range first {
		assert.Nil(t, b.Owner)
	}

	second, err := e.blogs.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetBlog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.blogs.Get(ctx, "5a3d5da59070081a82a3445")
	require.ErrorIs(t, err, ErrMalformedID)

	_, err = e.blogs.Get(ctx, model.NewID().Hex())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveBlog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, ownerToken := e.signUp(t, "owner")
	_, otherToken := e.signUp(t, "other")

	blog, err := e.blogs.Create(ctx, ownerToken, BlogInput{Title: "T", URL: "u"})
	require.NoError(t, err)
	before := e.blogCount(t)

	require.ErrorIs(t, e.blogs.Remove(ctx, otherToken, blog.ID.Hex()), ErrForbidden)
	assert.Equal(t, before, e.blogCount(t))

	require.NoError(t, e.blogs.Remove(ctx, ownerToken, blog.ID.Hex()))
	assert.Equal(t, before-1, e.blogCount(t))

	require.ErrorIs(t, e.blogs.Remove(ctx, ownerToken, blog.ID.Hex()), ErrNotFound)
}

func TestRemoveOwnerlessBlog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seeded := e.seedBlogs(t)
	_, token := e.signUp(t, "anyone")

	require.NoError(t, e.blogs.Remove(ctx, token, seeded[0].ID.Hex()))
	assert.Equal(t, len(seeded)-1, e.blogCount(t))
}

func TestRemoveBlogChecksTokenFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seeded := e.seedBlogs(t)

	require.ErrorIs(t, e.blogs.Remove(ctx, "", seeded[0].ID.Hex()), ErrUnauthorized)
	require.ErrorIs(t, e.blogs.Remove(ctx, "garbage", "bad-id"), ErrInvalidToken)

	_, token := e.signUp(t, "root")
	require.ErrorIs(t, e.blogs.Remove(ctx, token, "bad-id"), ErrMalformedID)
	assert.Equal(t, len(seeded), e.blogCount(t))
}

func TestRemoveKeepsUserBlogList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user, token := e.signUp(t, "owner")

	blog, err := e.blogs.Create(ctx, token, BlogInput{Title: "T", URL: "u"})
	require.NoError(t, err)
	require.NoError(t, e.blogs.Remove(ctx, token, blog.ID.Hex()))

	owner, err := e.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{blog.ID}, owner.Blogs)
}

func TestUpdateBlog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seeded := e.seedBlogs(t)
	target := seeded[0]

	got, err := e.blogs.Update(ctx, target.ID.Hex(), model.BlogPatch{Likes: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, target.Title, got.Title)
	assert.Equal(t, target.Author, got.Author)
	assert.Equal(t, target.URL, got.URL)
	assert.Equal(t, 0, got.Likes)

	got, err = e.blogs.Update(ctx, target.ID.Hex(), model.BlogPatch{Title: strPtr("Renamed"), Author: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "", got.Author)
	assert.Equal(t, target.URL, got.URL)
}

func TestUpdateBlogKeepsOwnerProjection(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user, token := e.signUp(t, "owner")
	blog, err := e.blogs.Create(ctx, token, BlogInput{Title: "T", URL: "u"})
	require.NoError(t, err)

	got, err := e.blogs.Update(ctx, blog.ID.Hex(), model.BlogPatch{Likes: intPtr(3)})
	require.NoError(t, err)
	require.NotNil(t, got.Owner)
	assert.Equal(t, user.ID, got.Owner.ID)
}

func TestUpdateBlogFailures(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seeded := e.seedBlogs(t)
	id := seeded[1].ID.Hex()

	_, err := e.blogs.Update(ctx, "zzz", model.BlogPatch{Likes: intPtr(1)})
	require.ErrorIs(t, err, ErrMalformedID)

	_, err = e.blogs.Update(ctx, model.NewID().Hex(), model.BlogPatch{Likes: intPtr(1)})
	require.ErrorIs(t, err, ErrNotFound)

	for field, patch := range map[string]model.BlogPatch{
		"title": {Title: strPtr(" ")},
		"url":   {URL: strPtr("")},
		"likes": {Likes: intPtr(-4)},
	} {
		_, err := e.blogs.Update(ctx, id, patch)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, field)
		assert.Equal(t, field, verr.Field)
	}

	unchanged, err := e.blogs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, seeded[1], unchanged)
}

func TestStats(t *testing.T) {
	e := newEnv(t)
	e.seedBlogs(t)

	summary, err := e.blogs.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Blogs)
	assert.Equal(t, 36, summary.TotalLikes)
	require.NotNil(t, summary.MostBlogs)
	assert.Equal(t, "Robert C. Martin", summary.MostBlogs.Author)
}

// The blog insert and the owner's list append are separate writes. When the
// append fails the blog remains and the caller sees the error.
func TestCreateBlogAppendFailureLeavesBlog(t *testing.T) {
	ctrl := gomock.NewController(t)
	blogStore := mock_store.NewMockBlogStore(ctrl)
	userStore := mock_store.NewMockUserStore(ctrl)
	tokens, err := auth.NewTokens("secret")
	require.NoError(t, err)

	owner := model.User{ID: model.NewID(), Username: "root", Name: "Superuser"}
	token, err := tokens.Issue(auth.Identity{ID: owner.ID, Username: owner.Username})
	require.NoError(t, err)

	boom := errors.New("write conflict")
	inserted := model.NewID()
	gomock.InOrder(
		userStore.EXPECT().GetUser(gomock.Any(), owner.ID).Return(owner, nil),
		blogStore.EXPECT().InsertBlog(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *model.Blog) error {
			require.NotNil(t, b.UserID)
			assert.Equal(t, owner.ID, *b.UserID)
			b.ID = inserted
			return nil
		}),
		userStore.EXPECT().AppendUserBlog(gomock.Any(), owner.ID, inserted).Return(boom),
	)
	blogStore.EXPECT().DeleteBlog(gomock.Any(), gomock.Any()).Times(0)

	_, err = NewBlogs(blogStore, userStore, tokens).Create(context.Background(), token, BlogInput{Title: "T", URL: "u"})
	require.ErrorIs(t, err, boom)
}

func TestCreateBlogStoreFailures(t *testing.T) {
	tokens, err := auth.NewTokens("secret")
	require.NoError(t, err)
	id := model.NewID()
	token, err := tokens.Issue(auth.Identity{ID: id, Username: "root"})
	require.NoError(t, err)
	boom := errors.New("server selection timeout")

	t.Run("user lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		blogStore := mock_store.NewMockBlogStore(ctrl)
		userStore := mock_store.NewMockUserStore(ctrl)
		userStore.EXPECT().GetUser(gomock.Any(), id).Return(model.User{}, boom)

		_, err := NewBlogs(blogStore, userStore, tokens).Create(context.Background(), token, BlogInput{Title: "T", URL: "u"})
		require.ErrorIs(t, err, boom)
	})

	t.Run("insert", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		blogStore := mock_store.NewMockBlogStore(ctrl)
		userStore := mock_store.NewMockUserStore(ctrl)
		userStore.EXPECT().GetUser(gomock.Any(), id).Return(model.User{}, store.ErrNotFound)
		blogStore.EXPECT().InsertBlog(gomock.Any(), gomock.Any()).Return(boom)

		_, err := NewBlogs(blogStore, userStore, tokens).Create(context.Background(), token, BlogInput{Title: "T", URL: "u"})
		require.ErrorIs(t, err, boom)
	})
}
