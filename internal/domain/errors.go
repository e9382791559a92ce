package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrAlreadyCheckedOut  = errors.New("visitor already checked out")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed input. Field and Message describe the
// first violation.
type ValidationError struct {
	Field      string
	Message    string
	Violations []Violation
}

func NewValidationError(violations ...Violation) *ValidationError {
	e := &ValidationError{Violations: violations}
	if len(violations) > 0 {
		e.Field = violations[0].Field
		e.Message = violations[0].Message
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Violations) <= 1 {
		return e.Message
	}
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; ")
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

// StoreError wraps a persistence failure. It is never retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func lengthMessage(field string, min int) string {
	return fmt.Sprintf("%s must be at least %d characters", field, min)
}
