package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("forbidden")
)

// Error carries a caller-facing message while still matching its kind with
// errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func E(kind error, msg string) error { return &Error{Kind: kind, Msg: msg} }

func NotFound(what string) error { return E(ErrNotFound, what+" not found") }
