package script

import "errors"

// Errors for script loading and execution.
var (
	// ErrStateClosed is returned when calling into a closed script.
	ErrStateClosed = errors.New("script: lua state is closed")

	// ErrNoTree is returned when a script defines no command tree.
	ErrNoTree = errors.New("script: no command tree defined")

	// ErrInvalidSpec is returned when the tree table is malformed.
	ErrInvalidSpec = errors.New("script: invalid tree definition")

	// ErrTimeout is returned when a handler exceeds its time limit.
	ErrTimeout = errors.New("script: handler timed out")
)
