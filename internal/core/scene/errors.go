package scene

import (
	"errors"
	"fmt"
)

// Scene-specific errors
var (
	ErrRootImmutable = errors.New("scene root cannot be removed or reparented")
	ErrReparentCycle = errors.New("cannot reparent a node under its own descendant")
	ErrNilNode       = errors.New("node is nil")
	ErrInvalidValue  = errors.New("invalid property value")
)

// DuplicateIDError reports an Add with an id that is already attached.
type DuplicateIDError struct {
	ID string
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("scene: node id %q already exists", e.ID)
}

// NotFoundError reports a lookup miss where a hard failure is warranted.
// Kind distinguishes node lookups from property path lookups.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("scene: %s %q not found", e.Kind, e.ID)
}
