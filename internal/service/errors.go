package service

import (
	"errors"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// ConflictError reports every double-booking found for a candidate entry so
// the caller can show all violations at once. Entry is the 1-based position
// of the failing candidate in a batch, or 0 outside batch processing.
type ConflictError struct {
	Entry     int
	Conflicts []string
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return "conflict"
	}
	return strings.Join(e.Conflicts, "; ")
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
