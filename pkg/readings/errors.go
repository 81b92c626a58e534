package readings

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput rejects a candidate before anything is written.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorageUnavailable wraps any failure of the reading or photo store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrPartialSubmission marks a photo that was stored without a reading
	// referencing it and could not be removed again.
	ErrPartialSubmission = errors.New("partial submission")
	// ErrNotFound is returned by stores for unknown reading or photo ids.
	ErrNotFound = errors.New("not found")
)

// PartialSubmissionError is returned when the reading document could not
// be created and the already uploaded photo could not be deleted either.
// PhotoID names the orphan so it can be reconciled later.
type PartialSubmissionError struct {
	PhotoID string
	Err     error
}

func (e *PartialSubmissionError) Error() string {
	return fmt.Sprintf("partial submission, orphaned photo %s: %v", e.PhotoID, e.Err)
}

func (e *PartialSubmissionError) Unwrap() []error {
	return []error{ErrPartialSubmission, ErrStorageUnavailable, e.Err}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func storageUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
