package categorization

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch means no keyword matched and no AI categorizer is configured.
	ErrNoMatch = errors.New("no keyword matched")
	// ErrCapabilityFailure wraps timeouts, quota errors and transport failures of the AI categorizer.
	ErrCapabilityFailure = errors.New("ai categorization failed")
	// ErrMalformedLabel means the AI answered with something that is not a category.
	ErrMalformedLabel = errors.New("ai returned an unusable category")
)

// UnresolvedError is returned when no strategy produced a category.
type UnresolvedError struct {
	Cause error
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("category could not be resolved: %v", e.Cause)
}

func (e *UnresolvedError) Unwrap() error {
	return e.Cause
}

// ValidationError reports a rejected configuration change.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
