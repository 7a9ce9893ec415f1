package service

import (
	"errors"
	"fmt"

	"github.com/alphabot-ai/bloglist/internal/auth"
	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store"
)

var (
	ErrUnauthorized       = errors.New("token missing")
	ErrInvalidToken       = auth.ErrInvalidToken
	ErrForbidden          = errors.New("only the creator can delete a blog")
	ErrNotFound           = store.ErrNotFound
	ErrMalformedID        = model.ErrInvalidID
	ErrDuplicateUsername  = auth.ErrDuplicateUsername
	ErrPasswordTooShort   = auth.ErrPasswordTooShort
	ErrInvalidCredentials = auth.ErrInvalidCredentials
)

// ValidationError names the input field that was rejected. Err, when set, is
// the taxonomy error behind it (ErrPasswordTooShort, ErrDuplicateUsername).
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func required(field string) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)}
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func rejected(field string, err error) error {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}
