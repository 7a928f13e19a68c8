package accounts

import (
	"errors"
	"time"
)

// Account is a persisted identity keyed by email with credential and
// activation state. PasswordHash and ActivationCode never leave the
// service boundary; response DTOs carry a projection only.
type Account struct {
	ID             int64
	Email          string
	PasswordHash   string
	ActivationCode string
	IsActivated    bool
	CreatedAt      time.Time
}

// Validation failures. Detected before or at insert, recoverable by the
// caller correcting input.
var (
	ErrEmptyPassword    = errors.New("password is empty")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrInvalidEmail     = errors.New("email is invalid")
	ErrEmailTooLong     = errors.New("email is too long")
	ErrDuplicateEmail   = errors.New("email already exists")
)

// Activation state-machine outcomes. Each is distinct and surfaced
// verbatim to the client.
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrIncorrectCode    = errors.New("activation code is incorrect")
	ErrAlreadyActivated = errors.New("account is already activated")
	ErrCodeExpired      = errors.New("activation code has expired")
	ErrTooManyAttempts  = errors.New("too many activation attempts")
)
