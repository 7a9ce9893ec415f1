package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"golang.org/x/crypto/hkdf"

	"github.com/alphabot-ai/bloglist/internal/model"
)

var ErrInvalidToken = errors.New("token invalid")

// Identity is what a token says about its bearer.
type Identity struct {
	ID       model.ID
	Username string
}

type claims struct {
	ID       string           `json:"id"`
	Username string           `json:"username"`
	IssuedAt *jwt.NumericDate `json:"iat,omitempty"`
}

// Tokens issues and verifies HS256 bearer tokens. Tokens carry no expiry.
type Tokens struct {
	key    []byte
	signer jose.Signer
	now    func() time.Time
}

func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("token signer: %w", err)
	}
	return &Tokens{key: key, signer: signer, now: time.Now}, nil
}

// deriveKey stretches any secret into the 32 bytes HS256 requires.
func deriveKey(secret string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("bloglist token signing"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (t *Tokens) Issue(id Identity) (string, error) {
	return jwt.Signed(t.signer).Claims(claims{
		ID:       id.ID.Hex(),
		Username: id.Username,
		IssuedAt: jwt.NewNumericDate(t.now()),
	}).Serialize()
}

func (t *Tokens) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	var c claims
	if err := parsed.Claims(t.key, &c); err != nil {
		return Identity{}, ErrInvalidToken
	}
	id, err := model.ParseID(c.ID)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: id, Username: c.Username}, nil
}
