package common

import (
	"errors"
	"fmt"
)

// Error categories used across the pipeline. Structural errors
// (configuration, constraints) stop the process; per-record and per-question
// errors are converted into summaries or answers at the nearest boundary.
var (
	// ErrConfiguration marks missing or invalid connection parameters.
	// Raised at construction, never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrConstraint marks a schema declaration conflict in the graph store.
	ErrConstraint = errors.New("constraint violation")

	// ErrValidation marks a malformed input record. The record is rejected,
	// the batch continues.
	ErrValidation = errors.New("validation error")

	// ErrServiceUnavailable marks an unreachable graph store or AI service.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrAlignment marks an embedding count mismatch. Fatal for the affected
	// index batch; previously indexed passages stay untouched.
	ErrAlignment = errors.New("embedding alignment error")
)

func ConfigurationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func ConstraintErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConstraint, fmt.Sprintf(format, args...))
}

func ValidationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func ServiceUnavailableErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrServiceUnavailable, fmt.Sprintf(format, args...))
}

func AlignmentErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAlignment, fmt.Sprintf(format, args...))
}
