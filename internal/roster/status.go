package roster

import (
	"errors"
	"fmt"
)

// Status is a person's presence state.
type Status string

const (
	// StatusIn marks a person as checked in.
	StatusIn Status = "in"

	// StatusOut marks a person as checked out.
	StatusOut Status = "out"
)

// ErrInvalidStatus is returned when a status other than "in" or "out"
// is supplied.
var ErrInvalidStatus = errors.New("status must be \"in\" or \"out\"")

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the two known states.
func (s Status) Valid() bool {
	return s == StatusIn || s == StatusOut
}

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusIn {
		return StatusOut
	}
	return StatusIn
}

// ParseStatus converts a string to a [Status].
// Returns an error wrapping [ErrInvalidStatus] for anything else.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w, got %q", ErrInvalidStatus, s)
	}
	return st, nil
}
