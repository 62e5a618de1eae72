package metadata

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/km-arc/armature/framework/container"
)

// ── Component kinds ───────────────────────────────────────────────────────────

// Kind categorizes a declared component. The discovery engine infers the
// same kinds from file naming, which is how files and declarations meet.
type Kind string

const (
	KindService    Kind = "service"
	KindController Kind = "controller"
	KindRepository Kind = "repository"
	KindMiddleware Kind = "middleware"
	KindComponent  Kind = "component"
)

// ── Declaration ───────────────────────────────────────────────────────────────

// Declaration describes one component: its identifier, lifetime, how to
// construct it, and (for controllers) its routes.
type Declaration struct {
	// Name is the service identifier the component registers under.
	Name string

	// Kind categorizes the component.
	Kind Kind

	// Lifetime controls memoization in the container.
	Lifetime container.Lifetime

	// Constructor is a function whose parameters are resolved from the
	// container. Supported shapes: func(deps...) *T and
	// func(deps...) (*T, error). Nil when Instance is set.
	Constructor any

	// Instance is a pre-built value registered as-is. Alternative to
	// Constructor.
	Instance any

	// Dependencies optionally pins the identifier resolved for each
	// constructor parameter, positionally. Parameters beyond its length
	// fall back to type-derived resolution.
	Dependencies []string

	// Tags group the component under container tags.
	Tags []string

	// Priority orders registration across components. Higher registers
	// first; equal priorities keep declaration order.
	Priority int

	// SourceFile is the file that declared the component, captured when
	// the declaration is registered. The registrar's loader matches
	// discovered files against it.
	SourceFile string

	// Routes carries the route set for controller declarations.
	Routes *RouteSet
}

// HasMetadata reports whether the declaration carries enough to build the
// component (a constructor or a pre-built instance).
func (d *Declaration) HasMetadata() bool {
	return d.Constructor != nil || d.Instance != nil
}

// ── Routes ────────────────────────────────────────────────────────────────────

// RouteSet is the route table of one controller: a base path, class-tier
// middleware applied to every route, and the routes in declaration order.
type RouteSet struct {
	BasePath    string
	Middlewares []Middleware
	Routes      []Route
}

// Route is one HTTP endpoint of a controller.
type Route struct {
	// Method is the HTTP verb.
	Method string

	// Path is the sub-path below the controller's base path. Segments of
	// the form ":name" declare path parameters.
	Path string

	// Handler is either a func(*dispatch.Context) error, or a method
	// expression func(T, *dispatch.Context) error where T is the
	// controller type. Method expressions are bound to the resolved
	// controller instance at mount time.
	Handler any

	// HandlerName names the handler for logs and error messages.
	HandlerName string

	// Middlewares is the method-tier middleware, declaration order.
	Middlewares []Middleware
}

// ── Builder ───────────────────────────────────────────────────────────────────

// Builder assembles a Declaration fluently. Obtain one from Component,
// Service, Repository, Controller, or MiddlewareComponent and finish with
// Register.
type Builder struct {
	d Declaration
}

// Component starts a declaration of the generic component kind.
// Components default to the singleton lifetime.
func Component(name string) *Builder {
	return newBuilder(name, KindComponent)
}

// Service starts a service declaration.
func Service(name string) *Builder {
	return newBuilder(name, KindService)
}

// Repository starts a repository declaration.
func Repository(name string) *Builder {
	return newBuilder(name, KindRepository)
}

// MiddlewareComponent starts a declaration for a reusable middleware
// component.
func MiddlewareComponent(name string) *Builder {
	return newBuilder(name, KindMiddleware)
}

// Controller starts a controller declaration rooted at basePath.
func Controller(name, basePath string) *Builder {
	b := newBuilder(name, KindController)
	b.d.Routes = &RouteSet{BasePath: basePath}
	return b
}

func newBuilder(name string, kind Kind) *Builder {
	return &Builder{d: Declaration{
		Name:     name,
		Kind:     kind,
		Lifetime: container.Singleton,
	}}
}

// Singleton sets the singleton lifetime (the default).
func (b *Builder) Singleton() *Builder {
	b.d.Lifetime = container.Singleton
	return b
}

// Transient sets the transient lifetime: a fresh instance per resolution.
func (b *Builder) Transient() *Builder {
	b.d.Lifetime = container.Transient
	return b
}

// Constructor sets the function that builds the component. Its parameters
// are resolved from the container when the component is registered.
func (b *Builder) Constructor(fn any) *Builder {
	b.d.Constructor = fn
	return b
}

// Provide registers a pre-built value instead of a constructor.
func (b *Builder) Provide(instance any) *Builder {
	b.d.Instance = instance
	return b
}

// DependsOn pins the identifiers resolved for the constructor parameters,
// positionally.
func (b *Builder) DependsOn(identifiers ...string) *Builder {
	b.d.Dependencies = append(b.d.Dependencies, identifiers...)
	return b
}

// WithTags groups the component under container tags.
func (b *Builder) WithTags(tags ...string) *Builder {
	b.d.Tags = append(b.d.Tags, tags...)
	return b
}

// WithPriority orders registration; higher priorities register first.
func (b *Builder) WithPriority(p int) *Builder {
	b.d.Priority = p
	return b
}

// Use appends class-tier middleware, applied to every route of the
// controller before any method-tier middleware.
func (b *Builder) Use(mw ...Middleware) *Builder {
	b.routes().Middlewares = append(b.routes().Middlewares, mw...)
	return b
}

// Get declares a GET route below the controller's base path.
func (b *Builder) Get(path string, handler any, mw ...Middleware) *Builder {
	return b.route("GET", path, handler, mw)
}

// Post declares a POST route.
func (b *Builder) Post(path string, handler any, mw ...Middleware) *Builder {
	return b.route("POST", path, handler, mw)
}

// Put declares a PUT route.
func (b *Builder) Put(path string, handler any, mw ...Middleware) *Builder {
	return b.route("PUT", path, handler, mw)
}

// Patch declares a PATCH route.
func (b *Builder) Patch(path string, handler any, mw ...Middleware) *Builder {
	return b.route("PATCH", path, handler, mw)
}

// Delete declares a DELETE route.
func (b *Builder) Delete(path string, handler any, mw ...Middleware) *Builder {
	return b.route("DELETE", path, handler, mw)
}

func (b *Builder) route(method, path string, handler any, mw []Middleware) *Builder {
	b.routes().Routes = append(b.routes().Routes, Route{
		Method:      method,
		Path:        path,
		Handler:     handler,
		HandlerName: funcName(handler),
		Middlewares: mw,
	})
	return b
}

func (b *Builder) routes() *RouteSet {
	if b.d.Routes == nil {
		b.d.Routes = &RouteSet{}
	}
	return b.d.Routes
}

// FromFile overrides the recorded source file. Register captures the
// caller's file automatically; tests use FromFile to pin deterministic
// paths.
func (b *Builder) FromFile(path string) *Builder {
	b.d.SourceFile = path
	return b
}

// Register finishes the declaration and adds it to the registry. The
// caller's source file is recorded unless FromFile pinned one.
func (b *Builder) Register(r *Registry) {
	if b.d.SourceFile == "" {
		if _, file, _, ok := runtime.Caller(1); ok {
			b.d.SourceFile = file
		}
	}
	d := b.d
	r.add(&d)
}

// funcName returns a readable name for a handler func value.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return "<handler>"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "<handler>"
	}
	name := f.Name()
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
