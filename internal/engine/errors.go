package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTarget is returned by Bind when no target is given.
	ErrNilTarget = errors.New("nil target")

	// ErrAlreadyBound is returned by Bind when a different target is bound.
	ErrAlreadyBound = errors.New("engine already bound to another target")

	// ErrDestroyed is returned by Bind after the engine or its model was
	// destroyed.
	ErrDestroyed = errors.New("engine destroyed")
)

// SyncError is an error detected while synchronizing the two collections.
type SyncError struct {
	// Code identifies the error category.
	Code SyncErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// SyncErrorCode categorizes sync errors.
type SyncErrorCode string

const (
	// ErrCodeImportFailed indicates the model reader rejected target elements.
	ErrCodeImportFailed SyncErrorCode = "IMPORT_FAILED"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsImportError reports whether err is an import failure.
// Uses errors.As to handle wrapped errors.
func IsImportError(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == ErrCodeImportFailed
	}
	return false
}

// NewImportError creates a SyncError for a failed import of total elements.
func NewImportError(total int, cause error) *SyncError {
	return &SyncError{
		Code:    ErrCodeImportFailed,
		Message: fmt.Sprintf("import of %d layers failed", total),
		Details: map[string]string{
			"total": fmt.Sprintf("%d", total),
		},
		Err: cause,
	}
}
