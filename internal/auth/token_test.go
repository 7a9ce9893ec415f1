package auth

import (
	"strings"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/alphabot-ai/bloglist/internal/model"
)

func newTokens(t *testing.T, secret string) *Tokens {
	t.Helper()
	tokens, err := NewTokens(secret)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	return tokens
}

func TestIssueVerify(t *testing.T) {
	tokens := newTokens(t, "s")
	id := Identity{ID: model.NewID(), Username: "mluukkai"}

	token, err := tokens.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact jwt, got %q", token)
	}

	got, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != id {
		t.Fatalf("expected %+v, got %+v", id, got)
	}
}

func TestVerifyRejects(t *testing.T) {
	tokens := newTokens(t, "secret")
	other := newTokens(t, "another secret")

	foreign, err := other.Issue(Identity{ID: model.NewID(), Username: "root"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	valid, err := tokens.Issue(Identity{ID: model.NewID(), Username: "root"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	for name, token := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-token",
		"foreign":  foreign,
		"tampered": tampered,
		"unsigned": parts[0] + "." + parts[1] + ".",
	} {
		if _, err := tokens.Verify(token); err != ErrInvalidToken {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestVerifyRequiresHS256(t *testing.T) {
	tokens := newTokens(t, "secret")
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS512, Key: append(tokens.key, tokens.key...)}, nil)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	token, err := jwt.Signed(signer).Claims(claims{ID: model.NewID().Hex(), Username: "root"}).Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if _, err := tokens.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRequiresID(t *testing.T) {
	tokens := newTokens(t, "secret")
	token, err := jwt.Signed(tokens.signer).Claims(claims{Username: "root"}).Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if _, err := tokens.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewTokensRejectsEmptySecret(t *testing.T) {
	if _, err := NewTokens(""); err == nil {
		t.Fatalf("expected error")
	}
}
