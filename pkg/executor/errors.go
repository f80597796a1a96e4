package executor

import (
	"errors"
	"fmt"

	"actionkit/pkg/tracker"
)

var (
	// ErrContractViolation is returned when a value offered for registration
	// does not satisfy the handler or Action contract.
	ErrContractViolation = errors.New("action contract violation")
	// ErrActionNotFound matches *ActionNotFoundError.
	ErrActionNotFound = errors.New("action not found")
	// ErrActionFailed matches *ExecutionError.
	ErrActionFailed = errors.New("action failed")
	// ErrInvalidTracker is returned when a call carries a malformed tracker.
	ErrInvalidTracker = tracker.ErrInvalidTracker
	// ErrNoSource is returned by RegisterDiscovered without a discovery source.
	ErrNoSource = errors.New("no discovery source configured")
)

// ActionNotFoundError reports a call for a name nothing was registered under.
type ActionNotFoundError struct {
	Name string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("no registered action found for name %q", e.Name)
}

func (e *ActionNotFoundError) Is(target error) bool {
	return target == ErrActionNotFound
}

// ExecutionError wraps an error returned, or a panic raised, by a handler.
type ExecutionError struct {
	Name string
	Err  error
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}

	return fmt.Sprintf("action %q failed: %v", e.Name, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrActionFailed
}

func contractErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...))
}
