package container

import (
	"fmt"
	"strings"
)

// ServiceNotFoundError is returned when resolving an identifier that has no
// binding. Registered carries the sorted list of identifiers the container
// does know about, so the message shows what was available at failure time.
type ServiceNotFoundError struct {
	Identifier string
	Registered []string
}

func (e *ServiceNotFoundError) Error() string {
	if len(e.Registered) == 0 {
		return fmt.Sprintf("container: no binding registered for [%s] (container is empty)", e.Identifier)
	}
	return fmt.Sprintf("container: no binding registered for [%s] (registered: %s)",
		e.Identifier, strings.Join(e.Registered, ", "))
}

// CircularDependencyError is returned when resolving an identifier that is
// already being built further up the same resolution chain. Path holds the
// full chain, ending with the identifier that closed the cycle.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "container: circular dependency detected"
	}
	return fmt.Sprintf("container: circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

// DuplicateRegistrationError is returned by RegisterStrict when the
// identifier already has a binding or instance.
type DuplicateRegistrationError struct {
	Identifier string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("container: [%s] is already registered", e.Identifier)
}

// ResolutionError wraps a failure that occurred while running a factory for
// an identifier, preserving the cause for errors.Is / errors.As.
type ResolutionError struct {
	Identifier string
	Cause      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("container: resolving [%s]: %v", e.Identifier, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }
