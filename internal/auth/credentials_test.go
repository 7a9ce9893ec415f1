package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphabot-ai/bloglist/internal/model"
	mock_store "github.com/alphabot-ai/bloglist/internal/store/mock"
	"github.com/alphabot-ai/bloglist/internal/store/sqlite"
)

func TestValidatePassword(t *testing.T) {
	for _, pw := range []string{"", "a", "ab", "äö"} {
		if err := ValidatePassword(pw); !errors.Is(err, ErrPasswordTooShort) {
			t.Fatalf("%q: expected ErrPasswordTooShort, got %v", pw, err)
		}
	}
	for _, pw := range []string{"abc", "äöü", "salainen"} {
		if err := ValidatePassword(pw); err != nil {
			t.Fatalf("%q: unexpected error %v", pw, err)
		}
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("salainen", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if strings.Contains(hash, "salainen") {
		t.Fatalf("hash leaks plaintext")
	}
	if !CheckPassword(hash, "salainen") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "salaine") {
		t.Fatalf("expected mismatch")
	}
	if _, err := HashPassword("x", bcrypt.MinCost); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestCredentials(t *testing.T) {
	st, err := sqlite.Open("file:auth_credentials?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	ctx := context.Background()
	creds := NewCredentials(st, bcrypt.MinCost)

	if err := creds.CheckUnique(ctx, "root"); err != nil {
		t.Fatalf("expected unique, got %v", err)
	}

	hash, err := creds.Hash("sekret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := model.User{Username: "root", Name: "Superuser", Adult: true, PasswordHash: hash}
	if err := st.InsertUser(ctx, &u); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	if err := creds.CheckUnique(ctx, "root"); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if err := creds.CheckUnique(ctx, "Root"); err != nil {
		t.Fatalf("usernames are case-sensitive, got %v", err)
	}

	got, err := creds.Authenticate(ctx, "root", "sekret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected user %s, got %s", u.ID.Hex(), got.ID.Hex())
	}
	if _, err := creds.Authenticate(ctx, "root", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := creds.Authenticate(ctx, "nobody", "sekret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCredentialsStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mock_store.NewMockUserStore(ctrl)
	boom := errors.New("connection reset")
	users.EXPECT().FindUserByUsername(gomock.Any(), "root").Return(model.User{}, boom).Times(2)

	creds := NewCredentials(users, bcrypt.MinCost)
	if err := creds.CheckUnique(context.Background(), "root"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := creds.Authenticate(context.Background(), "root", "pw"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
