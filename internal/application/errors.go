package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute such as an email is taken.
	ErrAlreadyExists = errors.New("application: already exists")

	// ErrMissingField is returned when a required booking field is empty.
	ErrMissingField = errors.New("application: missing required field")
	// ErrInvalidTimeRange is returned when a booking does not start strictly before it ends.
	ErrInvalidTimeRange = errors.New("application: invalid time range")
	// ErrSchedulingConflict is returned when a booking overlaps another in the same room and day.
	ErrSchedulingConflict = errors.New("application: scheduling conflict")

	// ErrInvalidCredentials is returned for any failed login, without saying which part was wrong.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
//
// Reason, when set, is the taxonomy sentinel the error matches with errors.Is.
type ValidationError struct {
	FieldErrors map[string]string
	Reason      error
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if v.Reason != nil {
		return fmt.Sprintf("validation failed: %v", v.Reason)
	}
	return "validation failed"
}

// Unwrap exposes Reason to errors.Is.
func (v *ValidationError) Unwrap() error {
	if v == nil {
		return nil
	}
	return v.Reason
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError reports the existing booking a candidate collides with.
type ConflictError struct {
	BookingID     string
	WithBookingID string
	RoomID        string
	Date          string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking overlaps %s in room %s on %s", e.WithBookingID, e.RoomID, e.Date)
}

// Is matches ErrSchedulingConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrSchedulingConflict
}

// merge copies field errors from other into v.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, message := range other.FieldErrors {
		v.add(field, message)
	}
	if v.Reason == nil {
		v.Reason = other.Reason
	}
}
