package domain

import (
	"errors"
	"strings"
)

// Kind classifies an error for callers and transports.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindAuthorization    Kind = "authorization"
	KindNotFound         Kind = "not_found"
	KindStateConflict    Kind = "state_conflict"
	KindResourceConflict Kind = "resource_conflict"
	KindInternal         Kind = "internal"
)

// FieldError points a validation failure at a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the error type returned by the engine.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+" "+f.Message)
		}
		return e.Message + ": " + strings.Join(parts, "; ")
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError builds a validation error carrying field details.
func NewValidationError(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// NewAuthorizationError is returned when the caller may not act on a resource.
func NewAuthorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// NewStateConflictError is returned for transitions the current status does not allow.
func NewStateConflictError(message string) *Error {
	return &Error{Kind: KindStateConflict, Message: message}
}

// NewInternalError wraps a storage or transport failure.
func NewInternalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf classifies err. Errors not produced by the engine are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	// ErrGameNotFound is returned when a game is absent or soft-deleted.
	ErrGameNotFound = &Error{Kind: KindNotFound, Message: "game not found"}
	// ErrSubmissionNotFound is returned when a submission is absent or soft-deleted.
	ErrSubmissionNotFound = &Error{Kind: KindNotFound, Message: "submission not found"}
	// ErrJoinCodeNotFound is returned when no live game holds a join code.
	ErrJoinCodeNotFound = &Error{Kind: KindNotFound, Message: "join code not found"}
	// ErrJoinCodeTaken signals a join-code uniqueness collision in the store.
	ErrJoinCodeTaken = &Error{Kind: KindResourceConflict, Message: "join code already in use"}
	// ErrDuplicateSubmission signals a second submission where only one is allowed.
	ErrDuplicateSubmission = &Error{Kind: KindResourceConflict, Message: "submission already exists for this game"}
	// ErrJoinCodesExhausted is returned when no free join code was found within the attempt bound.
	ErrJoinCodesExhausted = &Error{Kind: KindInternal, Message: "could not allocate a unique join code"}
	// ErrNotOwner is returned when the caller does not organize the game.
	ErrNotOwner = &Error{Kind: KindAuthorization, Message: "only the game organizer may perform this action"}
	// ErrStaleWrite is returned when a conditional update found the record in another state.
	ErrStaleWrite = &Error{Kind: KindStateConflict, Message: "record was modified concurrently"}
)
