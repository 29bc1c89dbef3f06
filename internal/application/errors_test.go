package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withReason := &ValidationError{Reason: ErrMissingField}
	if got := withReason.Error(); got != "validation failed: application: missing required field" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", &ValidationError{Reason: ErrInvalidTimeRange})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected wrapped validation error to match its reason")
	}
	if errors.Is(&ValidationError{}, ErrMissingField) {
		t.Fatalf("expected validation error without reason to match nothing")
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if (&ValidationError{}).HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}
	if !(&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors() {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}, Reason: ErrMissingField}
	base.merge(other)
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}
	if base.Reason != ErrMissingField {
		t.Fatalf("expected merge to adopt reason")
	}

	base.merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestConflictError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("save: %w", &ConflictError{WithBookingID: "b1", RoomID: "R1", Date: "2024-06-01"})
	if !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("expected conflict error to match ErrSchedulingConflict")
	}
	var cErr *ConflictError
	if !errors.As(err, &cErr) || cErr.WithBookingID != "b1" {
		t.Fatalf("expected to recover the conflicting booking id")
	}
}
