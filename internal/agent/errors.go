package agent

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrMissingCredentials = errors.New("model credentials are not set")
	ErrMaxIterations      = errors.New("maximum reasoning iterations reached")
	ErrNoChoices          = errors.New("model returned no choices")
	ErrEmptyAnswer        = errors.New("model returned an empty final answer")
	ErrNoAgent            = errors.New("task has no agent")
	ErrPanic              = errors.New("execution panicked")
)

// ConfigurationError reports a missing or invalid agent field.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("agent configuration: %s %s", e.Field, e.Reason)
}

// ModelBindingError reports that the language model client could not be created.
type ModelBindingError struct {
	Model string
	Err   error
}

func (e *ModelBindingError) Error() string {
	return fmt.Sprintf("bind model %s: %v", e.Model, e.Err)
}

func (e *ModelBindingError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a failed task run. The run is not resumable;
// callers retry by running the task again.
type ExecutionError struct {
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution %s failed: %v", e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
