// Package model defines the EventMeet entities and the error taxonomy shared by
// every layer.
package model

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers. Match with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrDuplicate  = errors.New("already exists")
	ErrNotFound   = errors.New("not found")
	ErrRemote     = errors.New("remote api error")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RemoteError wraps any failure talking to the events API: transport errors,
// non-2xx responses and undecodable bodies.
type RemoteError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is makes every RemoteError match ErrRemote.
func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// DuplicateMeetingError reports an existing record for the same event and person.
type DuplicateMeetingError struct {
	EventID   int64
	MetUserID int64
}

func (e *DuplicateMeetingError) Error() string {
	return fmt.Sprintf("meeting with user %d at event %d already recorded", e.MetUserID, e.EventID)
}

func (e *DuplicateMeetingError) Unwrap() error { return ErrDuplicate }
