package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies application errors so transports can map them to status codes.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindUnauthorized      ErrorKind = "UNAUTHORIZED"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindConflict          ErrorKind = "CONFLICT"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindToolUnavailable   ErrorKind = "TOOL_UNAVAILABLE"
)

// AppError is a typed error surfaced by the domain and application layers.
type AppError struct {
	Kind    ErrorKind
	Message string
	Details any
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches any AppError of the same kind, which lets callers use the
// Err* sentinels below with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &AppError{Kind: KindValidation}
	ErrNotFound          = &AppError{Kind: KindNotFound}
	ErrUnauthorized      = &AppError{Kind: KindUnauthorized}
	ErrForbidden         = &AppError{Kind: KindForbidden}
	ErrConflict          = &AppError{Kind: KindConflict}
	ErrInvalidTransition = &AppError{Kind: KindInvalidTransition}
	ErrToolUnavailable   = &AppError{Kind: KindToolUnavailable}
)

// NewValidationError reports malformed input.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", entity, id),
	}
}

// NewUnauthorizedError reports a missing or invalid identity.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

// NewForbiddenError reports an actor that may not perform the action.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewConflictError reports a concurrent modification.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewInvalidTransitionError reports a state change the state machine does not allow.
func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Details: map[string]string{"from": from, "to": to},
	}
}

// NewToolUnavailableError reports that the requested range collides with an
// existing booking. conflict may be nil when the colliding range is unknown.
func NewToolUnavailableError(conflict any) *AppError {
	return &AppError{
		Kind:    KindToolUnavailable,
		Message: "tool is not available for the requested period",
		Details: conflict,
	}
}

// KindOf returns the kind of err, or "" for errors that are not AppErrors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
