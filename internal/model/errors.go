package model

import "errors"

// Store-level errors.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Error kinds surfaced by services. Match them with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrDuplicateAccount  = errors.New("duplicate account")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnverifiedAccount = errors.New("unverified account")
	ErrForbidden         = errors.New("forbidden operation")
	ErrDependencyFailure = errors.New("dependency failure")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a typed failure with a user-visible message.
type Error struct {
	Kind    error
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewError creates an Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewValidationError creates a validation Error carrying field details.
func NewValidationError(fields ...FieldError) *Error {
	return &Error{Kind: ErrValidation, Message: "validation failed", Fields: fields}
}

// NewDependencyError wraps a failure of a critical-path external dependency.
func NewDependencyError(message string, err error) *Error {
	return &Error{Kind: ErrDependencyFailure, Message: message, Err: err}
}

// PublicMessage returns the user-visible message of err when it is an *Error.
func PublicMessage(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Message, true
	}
	return "", false
}
