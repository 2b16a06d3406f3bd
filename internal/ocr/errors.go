package ocr

import (
	"errors"
	"fmt"
)

// Common text-location errors
var (
	// ErrEngineUnavailable is returned when the text-location engine could
	// not be initialized. The service keeps running; extraction degrades to
	// all-sentinel records.
	ErrEngineUnavailable = errors.New("text-location engine is unavailable")

	// ErrLocateFailed is returned when the backend fails to process an image.
	ErrLocateFailed = errors.New("text location failed")

	// ErrEmptyImage is returned when the provided image payload is empty.
	ErrEmptyImage = errors.New("image payload is empty")

	// ErrMissingCredentials is returned when a cloud backend is selected but
	// neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrUnsupportedBackend is returned for an unknown LOCATOR_BACKEND value.
	ErrUnsupportedBackend = errors.New("unsupported text-locator backend")
)

// LocateError wraps errors with additional context about the text-location failure.
type LocateError struct {
	// Op is the operation that failed (e.g., "Locate", "NewTesseractLocator").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *LocateError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *LocateError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *LocateError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewLocateError creates a new LocateError with the specified operation and underlying error.
func NewLocateError(op string, err error, details string) *LocateError {
	return &LocateError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapLocateError wraps an error as a LocateError if it isn't already one.
func WrapLocateError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var locErr *LocateError
	if errors.As(err, &locErr) {
		return err // Already wrapped
	}

	return NewLocateError(op, err, details)
}
