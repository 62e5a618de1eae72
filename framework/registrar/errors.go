package registrar

import (
	"fmt"
	"strings"
)

// ImportError reports a component file that was discovered but could
// not be loaded: the loader found no declaration for it, or failed
// outright. Non-fatal per component.
type ImportError struct {
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registrar: cannot load %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("registrar: cannot load %s", e.Path)
}

func (e *ImportError) Unwrap() error { return e.Err }

// MetadataMissingError reports a loaded component that carries no
// construction metadata (neither a constructor nor an instance). The
// component is skipped silently unless strict mode is on.
type MetadataMissingError struct {
	Path string
	Name string
}

func (e *MetadataMissingError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("registrar: component %s (%s) declares no constructor or instance", e.Name, e.Path)
	}
	return fmt.Sprintf("registrar: %s declares no constructor or instance", e.Path)
}

// InvalidConstructorError reports a constructor whose shape the
// registrar cannot call. Supported shapes: func(deps...) T and
// func(deps...) (T, error).
type InvalidConstructorError struct {
	Component string
	Reason    string
}

func (e *InvalidConstructorError) Error() string {
	return fmt.Sprintf("registrar: invalid constructor for %s: %s", e.Component, e.Reason)
}

// DependencyResolutionError reports a constructor parameter that no
// resolution tier could satisfy. Tried lists the identifiers attempted
// in order; Registered is the container state at failure time.
type DependencyResolutionError struct {
	Component  string
	Index      int
	ParamType  string
	Tried      []string
	Registered []string
}

func (e *DependencyResolutionError) Error() string {
	return fmt.Sprintf(
		"registrar: cannot resolve parameter %d (%s) of %s: tried [%s]; registered: [%s]",
		e.Index, e.ParamType, e.Component,
		strings.Join(e.Tried, ", "),
		strings.Join(e.Registered, ", "),
	)
}

// ComponentError pairs a component path with the failure that kept it
// out of the container.
type ComponentError struct {
	Path string
	Err  error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ComponentError) Unwrap() error { return e.Err }
