package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Plugin-specific errors
var (
	// ErrDescriptorDisposed is returned when initializing an id whose
	// descriptor has been disposed. Unregister it and register a fresh
	// instance instead.
	ErrDescriptorDisposed = errors.New("plugin descriptor already disposed")
)

// DuplicateRegistrationError reports a Register call for an id that is
// already taken.
type DuplicateRegistrationError struct {
	ID string
}

func (e DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("plugin: id %q already registered", e.ID)
}

// NotFoundError reports an Initialize or Dispose call for an unregistered id.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("plugin: id %q not registered", e.ID)
}

// PluginDependencyError reports a declared dependency that is not registered.
type PluginDependencyError struct {
	PluginID string
	Missing  string
}

func (e PluginDependencyError) Error() string {
	return fmt.Sprintf("plugin: %q depends on unregistered plugin %q", e.PluginID, e.Missing)
}

// CircularDependencyError carries the concrete dependency cycle, in traversal
// order with the first id repeated at the end.
type CircularDependencyError struct {
	Path []string
}

func (e CircularDependencyError) Error() string {
	return fmt.Sprintf("plugin: circular dependency: %s", strings.Join(e.Path, " -> "))
}
