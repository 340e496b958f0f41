package domain

import (
	"errors"
	"fmt"
	"testing"

	"tour-settlement-go/internal/store"
)

func TestErrorClassification(t *testing.T) {
	base := errors.New("sql: no rows in result set")
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NotFoundError{Resource: "booking", Err: base}, IsNotFound},
		{"validation", ValidationError{Field: "bookingID", Msg: "required"}, IsValidation},
		{"conflict", ConflictError{Resource: "transaction", Msg: "duplicate payment id"}, IsConflict},
		{"forbidden", ForbiddenError{Msg: "not your booking"}, IsForbidden},
		{"internal", InternalError{Err: base}, IsInternal},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("settle: %w", tt.err)
		if !tt.check(wrapped) {
			t.Errorf("%s: classification lost through wrapping: %v", tt.name, wrapped)
		}
	}

	if IsNotFound(ValidationError{Msg: "x"}) {
		t.Error("validation error must not classify as not found")
	}
	if !errors.Is(NotFoundError{Resource: "booking", Err: base}, base) {
		t.Error("NotFoundError should unwrap to its cause")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Field: "tourID", Msg: "required"}, "tourID: required"},
		{ValidationError{Msg: "tour already started"}, "tour already started"},
		{ValidationError{Field: "amount"}, "invalid amount"},
		{ValidationError{}, "validation error"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestFromStore(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", fmt.Errorf("%w: booking BK1", store.ErrNotFound), IsNotFound},
		{"cas", fmt.Errorf("update failed - %w", store.ErrConcurrentModification), IsConflict},
		{"duplicate", fmt.Errorf("%w: pay_1", store.ErrDuplicateTransaction), IsConflict},
		{"other", errors.New("disk I/O error"), IsInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromStore("booking", tt.err)
			if !tt.check(got) {
				t.Errorf("FromStore(%v) = %T", tt.err, got)
			}
			if !errors.Is(got, tt.err) {
				t.Error("Expected the store error to stay in the chain")
			}
		})
	}

	if FromStore("booking", nil) != nil {
		t.Error("Expected nil for nil error")
	}
}
