package services

import (
	"errors"
	"fmt"
)

// Domain errors surfaced verbatim to callers. Handlers map them to HTTP
// status codes; none are swallowed inside the pipeline.
var (
	// ErrForbidden means the actor is not allowed to perform the
	// operation. No state was touched.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the submission id is unknown or deleted.
	ErrNotFound = errors.New("submission not found")

	// ErrAlreadyFinalized signals a race on a terminal submission. The
	// desired end state is already reached, so callers should treat it as
	// success of intent rather than failure.
	ErrAlreadyFinalized = errors.New("submission already finalized")

	// ErrUnsupportedMedia rejects documents that are not PDF or DOCX,
	// before anything is stored.
	ErrUnsupportedMedia = errors.New("unsupported document type, expected PDF or DOCX")

	// ErrPayloadTooLarge rejects documents over the intake size limit,
	// before anything is stored.
	ErrPayloadTooLarge = errors.New("document exceeds the maximum allowed size")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError names the intake field that failed validation so the
// client can correct it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
