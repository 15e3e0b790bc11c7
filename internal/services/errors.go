package services

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidInput marks malformed or out-of-range fields. The concrete
	// error is a *ValidationError carrying the messages.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateIdentity is returned when the email is already registered.
	ErrDuplicateIdentity = errors.New("user with this email already exists")
	// ErrAuthenticationFailed covers unknown emails, wrong passwords and
	// inactive accounts alike.
	ErrAuthenticationFailed = errors.New("invalid credentials")
	// ErrNotFound covers both missing resources and resources owned by
	// another user.
	ErrNotFound = errors.New("not found")
)

// ValidationError lists every human-readable problem found in one input.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Messages, "; ")
}

// Is lets errors.Is(err, ErrInvalidInput) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}
