package sqlite

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store"
	"github.com/alphabot-ai/bloglist/internal/store/storetest"
)

func newTestStore(t testing.TB) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
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

func TestMigrationsIdempotent(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	if err := applySchema(st.db); err != nil {
		t.Fatalf("reapply schema: %v", err)
	}
	var version int
	if err := st.db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != len(migrations) {
		t.Fatalf("expected version %d, got %d", len(migrations), version)
	}
}

func TestDanglingOwnerKeepsReference(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	ghost := model.NewID()
	blog := model.Blog{Title: "Orphan", URL: "https://example.com", UserID: &ghost}
	if err := st.InsertBlog(context.Background(), &blog); err != nil {
		t.Fatalf("insert blog: %v", err)
	}
	got, err := st.GetBlog(context.Background(), blog.ID)
	if err != nil {
		t.Fatalf("get blog: %v", err)
	}
	if got.UserID == nil || *got.UserID != ghost {
		t.Fatalf("expected user reference %s, got %v", ghost.Hex(), got.UserID)
	}
	if got.Owner != nil {
		t.Fatalf("expected no owner projection, got %+v", got.Owner)
	}
}

func TestEmptyAuthorStoredAsNull(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	blog := model.Blog{Title: "No author", URL: "https://example.com"}
	if err := st.InsertBlog(context.Background(), &blog); err != nil {
		t.Fatalf("insert blog: %v", err)
	}
	var isNull bool
	if err := st.db.QueryRow(`SELECT author IS NULL FROM blogs WHERE id = ?`, blog.ID.Hex()).Scan(&isNull); err != nil {
		t.Fatalf("query: %v", err)
	}
	if !isNull {
		t.Fatalf("expected NULL author")
	}
}
