package pipeline

import (
	"errors"
)

// ErrInvalidCriteria reports universe thresholds that cannot be built.
var ErrInvalidCriteria = errors.New("invalid pipeline criteria")

// StageError names the stage that aborted a build.
type StageError struct {
	Stage string
	Err   error
}

// Error implements error.
func (e *StageError) Error() string {
	return "stage " + e.Stage + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error { return e.Err }
