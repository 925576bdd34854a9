package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds surfaced by the booking core. All of them are recoverable
// by the caller; the HTTP layer maps each to a client status code.
var (
	// ErrNotFound marks a referenced doctor, slot or appointment that
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlotUnavailable is returned when booking is attempted against a
	// slot whose availability flag is already false. Callers are expected
	// to re-fetch availability and retry with another slot.
	ErrSlotUnavailable = errors.New("time slot is no longer available")

	// ErrInvalidTransition is returned when cancelling an appointment
	// that is not in the scheduled state.
	ErrInvalidTransition = errors.New("only scheduled appointments can be cancelled")

	// ErrSlotOverlap rejects generated slot batches that would overlap a
	// doctor's existing slots.
	ErrSlotOverlap = errors.New("time slots overlap existing slots")
)

// ValidationError carries per-field messages for structural input
// violations.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
