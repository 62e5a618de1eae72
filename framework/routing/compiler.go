package routing

import (
	"strings"

	"github.com/km-arc/armature/framework/metadata"
)

// CompiledRoute is one route flattened out of a controller declaration:
// the joined path, its ordered parameter names, and the full middleware
// stack in execution order.
type CompiledRoute struct {
	Controller  string
	Method      string
	FullPath    string
	ChiPattern  string
	ParamNames  []string
	Middlewares []metadata.Middleware
	HandlerName string
	Handler     any
}

// Compiler flattens controller declarations into mountable routes.
// Compilation is pure: no container, no router, just path and
// middleware arithmetic, which keeps it testable in isolation.
type Compiler struct {
	global []metadata.Middleware
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Use appends process-wide middleware, the outermost tier of every
// compiled route.
func (cp *Compiler) Use(mw ...metadata.Middleware) *Compiler {
	cp.global = append(cp.global, mw...)
	return cp
}

// Compile walks the declarations' route sets in order. Middleware per
// route stacks global tier, then class tier, then method tier, keeping
// declaration order within each tier. Two routes compiling to the same
// (method, path) pair are a *RouteConflictError.
func (cp *Compiler) Compile(decls []*metadata.Declaration) ([]CompiledRoute, error) {
	var routes []CompiledRoute
	seen := map[string]string{}

	for _, d := range decls {
		if d.Routes == nil {
			continue
		}

		for _, rt := range d.Routes.Routes {
			full := JoinPath(d.Routes.BasePath, rt.Path)

			key := rt.Method + " " + full
			if prior, dup := seen[key]; dup {
				return nil, &RouteConflictError{
					Method:     rt.Method,
					Path:       full,
					Controller: d.Name,
					Prior:      prior,
				}
			}
			seen[key] = d.Name

			mws := make([]metadata.Middleware, 0, len(cp.global)+len(d.Routes.Middlewares)+len(rt.Middlewares))
			mws = append(mws, cp.global...)
			mws = append(mws, d.Routes.Middlewares...)
			mws = append(mws, rt.Middlewares...)

			routes = append(routes, CompiledRoute{
				Controller:  d.Name,
				Method:      rt.Method,
				FullPath:    full,
				ChiPattern:  ChiPattern(full),
				ParamNames:  ExtractParams(full),
				Middlewares: mws,
				HandlerName: rt.HandlerName,
				Handler:     rt.Handler,
			})
		}
	}

	return routes, nil
}

// JoinPath joins a base path and a sub path with exactly one separating
// slash, normalizes to a single leading slash, and trims the trailing
// slash. The root path stays "/".
func JoinPath(base, sub string) string {
	full := "/" + strings.Trim(base, "/")

	if s := strings.Trim(sub, "/"); s != "" {
		if full == "/" {
			full += s
		} else {
			full = full + "/" + s
		}
	}

	return full
}

// ExtractParams returns the ordered parameter names of a path pattern,
// scanning left to right for ":name" segments. The order matters: the
// transport reports parameter values positionally, and the dispatcher
// zips them against this list.
func ExtractParams(path string) []string {
	var names []string
	for _, seg := range strings.Split(path, "/") {
		if len(seg) > 1 && seg[0] == ':' {
			names = append(names, seg[1:])
		}
	}
	return names
}

// ChiPattern translates ":name" segments into chi's "{name}" form.
func ChiPattern(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if len(seg) > 1 && seg[0] == ':' {
			segs[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}
