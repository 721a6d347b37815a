package history

import "errors"

// History-specific errors
var (
	// ErrReentrantExecution is returned when a command's own apply calls back
	// into Execute on the same history.
	ErrReentrantExecution = errors.New("reentrant command execution")
	// ErrInvalidCommand is returned for structurally invalid commands
	// (missing entity id or property path).
	ErrInvalidCommand = errors.New("invalid command")
)
