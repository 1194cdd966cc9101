// Package common defines shared constants, sentinel errors, and small
// helpers used across all layers of the article backend. Callers should
// use errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// User directory errors.
	ErrDuplicateUser  = errors.New("duplicate user")
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("bad credentials")

	// Article store errors.
	ErrArticleNotFound = errors.New("article not found")

	// Auth errors (invalid, malformed, or expired token).
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenExpiredOrInvalid = errors.New("token expired or invalid")

	// Notification errors. State changes are persisted before dispatch,
	// so this error reports a failed send, never a rolled-back update.
	ErrNotification = errors.New("notification failed")
)

// ValidationError reports the first missing or invalid request field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: missing %s", e.Field)
}

// NewValidationError builds a ValidationError for the given field name.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}
