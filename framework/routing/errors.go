package routing

import "fmt"

// RouteConflictError reports two routes compiling to the same method
// and path.
type RouteConflictError struct {
	Method     string
	Path       string
	Controller string
	Prior      string
}

func (e *RouteConflictError) Error() string {
	return fmt.Sprintf("routing: duplicate route %s %s: declared by %s and %s",
		e.Method, e.Path, e.Prior, e.Controller)
}

// MountError reports a compiled route that cannot be bound to the
// router: a missing controller instance, an unsupported handler shape,
// or a middleware descriptor the builder rejected.
type MountError struct {
	Controller string
	Route      string
	Reason     string
}

func (e *MountError) Error() string {
	return fmt.Sprintf("routing: cannot mount %s for %s: %s", e.Route, e.Controller, e.Reason)
}
