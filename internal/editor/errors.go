package editor

import "errors"

// Editor-specific errors
var (
	ErrAlreadyStarted = errors.New("editor is already started")
	ErrNotStarted     = errors.New("editor is not started")
	ErrInvalidConfig  = errors.New("invalid editor configuration")
)
