package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a game error so callers can react without parsing
// the human-readable message.
type ErrorKind string

const (
	KindNotFound                ErrorKind = "not_found"
	KindUnauthorized            ErrorKind = "unauthorized"
	KindInvalidState            ErrorKind = "invalid_state"
	KindValidation              ErrorKind = "validation"
	KindInsufficientSupply      ErrorKind = "insufficient_supply"
	KindLockContention          ErrorKind = "lock_contention"
	KindCodeGenerationExhausted ErrorKind = "code_generation_exhausted"
	KindInternal                ErrorKind = "internal"
)

// GameError is a typed rejection raised from inside a locked critical
// section. The surrounding transaction is rolled back and the lock released
// before it reaches the caller.
type GameError struct {
	Kind    ErrorKind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is lets errors.Is match two game errors by kind, so sentinel values like
// ErrNotFound can be compared against dynamically built errors.
func (e *GameError) Is(target error) bool {
	var ge *GameError
	if !errors.As(target, &ge) {
		return false
	}
	return e.Kind == ge.Kind
}

// NewGameError builds a typed error with a formatted message.
func NewGameError(kind ErrorKind, format string, args ...interface{}) *GameError {
	return &GameError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error chain, KindInternal if untyped.
func KindOf(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInternal
}

// Common sentinel values. Prefer NewGameError for messages that need context.
var (
	ErrNotFound         = &GameError{Kind: KindNotFound, Message: "session not found"}
	ErrCardNotFound     = &GameError{Kind: KindNotFound, Message: "card not found"}
	ErrSessionCodeTaken = &GameError{Kind: KindValidation, Message: "session code already taken"}
	ErrLockContention   = &GameError{Kind: KindLockContention, Message: "another operation is in progress, retry"}
)
