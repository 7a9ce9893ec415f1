package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/bloglist/internal/fixtures"
	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store"
	"github.com/alphabot-ai/bloglist/internal/store/storetest"
)

func newTestStore(t testing.TB) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), uuid.NewString()+".db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func TestContract(t *testing.T) {
	storetest.Contract{
		Subject: func(tb testing.TB) store.Store { return newTestStore(tb) },
	}.Test(t)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bloglist.db")

	st, err := Open(path)
	require.NoError(t, err)
	u := model.User{Username: "mluukkai", Name: "Matti Luukkainen", Adult: true, PasswordHash: "hash"}
	require.NoError(t, st.InsertUser(ctx, &u))
	blog := fixtures.RandomBlog()
	blog.UserID = &u.ID
	require.NoError(t, st.InsertBlog(ctx, &blog))
	require.NoError(t, st.AppendUserBlog(ctx, u.ID, blog.ID))
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Owner)
	require.Equal(t, "mluukkai", got.Owner.Username)

	user, err := st.FindUserByUsername(ctx, "mluukkai")
	require.NoError(t, err)
	require.Equal(t, []model.ID{blog.ID}, user.Blogs)
}

func TestOwnerProjectionFollowsMissingUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	defer st.Close()

	ghost := model.NewID()
	blog := model.Blog{Title: "Orphan", URL: "https://example.com", UserID: &ghost}
	require.NoError(t, st.InsertBlog(ctx, &blog))

	got, err := st.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	require.NotNil(t, got.UserID)
	require.Equal(t, ghost, *got.UserID)
	require.Nil(t, got.Owner)
}
