package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value from the container.
type Factory func(c *Container) any

// binding holds a registered factory and its lifetime.
type binding struct {
	factory  Factory
	lifetime Lifetime
}

// extender wraps an already-resolved instance with decorator logic.
type extender func(instance any, c *Container) any

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the service container at the core of the framework. Components
// are registered under string identifiers and resolved on demand.
//
// It supports:
//   - Register / Bind / Singleton / Instance / Alias
//   - Resolve (error-returning) and Make (panicking)
//   - Lifetimes (singleton instances are memoized, transients are rebuilt)
//   - Tags (group multiple identifiers under one tag)
//   - Extend (decorate / wrap resolved instances)
//   - Contextual binding (when A needs B, give it C)
//   - Rebound and after-resolve callbacks
//
// Resolution failures are typed: an unknown identifier yields a
// *ServiceNotFoundError listing everything that IS registered, and a factory
// that re-enters its own identifier yields a *CircularDependencyError with
// the full chain.
type Container struct {
	mu sync.RWMutex

	// identifier → binding
	bindings map[string]*binding

	// identifier → resolved singleton instance
	instances map[string]any

	// alias → identifier (canonical key)
	aliases map[string]string

	// identifier → extender funcs
	extenders map[string][]extender

	// tag → []identifier
	tags map[string][]string

	// contextual: when[concrete][identifier] = factory
	contextual map[string]map[string]Factory

	// rebound callbacks: identifier → []func(any)
	reboundCallbacks map[string][]func(any)

	// resolved callbacks: []func(identifier, instance)
	afterResolving []func(string, any)

	// stack of identifiers currently being resolved. Used for contextual
	// lookup and cycle detection. First resolutions happen during the
	// single-threaded bootstrap pass, so the shared stack is safe there;
	// it stays mutex-guarded for steady-state transient resolution.
	buildStack []buildFrame
}

// buildFrame records one in-flight resolution. The binding pointer lets the
// cycle check distinguish a genuine loop from a deferred provider that
// re-binds its identifier mid-resolution and resolves it again.
type buildFrame struct {
	key string
	b   *binding // nil when built from a contextual factory
}

// New creates an empty container. The container registers itself under the
// reserved identifier "container" so factories can receive it as a
// dependency.
func New() *Container {
	c := &Container{
		bindings:         make(map[string]*binding),
		instances:        make(map[string]any),
		aliases:          make(map[string]string),
		extenders:        make(map[string][]extender),
		tags:             make(map[string][]string),
		contextual:       make(map[string]map[string]Factory),
		reboundCallbacks: make(map[string][]func(any)),
	}
	c.Instance("container", c)
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register binds a factory under an identifier with an explicit lifetime.
// Registering an identifier that already exists replaces the previous
// binding and drops any cached singleton instance (last write wins).
//
//	c.Register("UserService", func(c *container.Container) any {
//	    return services.NewUserService(container.Resolve[*logging.Logger](c, "logger"))
//	}, container.Singleton)
func (c *Container) Register(identifier string, factory Factory, lifetime Lifetime) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bind(identifier, factory, lifetime)
}

// RegisterStrict is Register for callers that treat duplicates as a fault.
// It returns a *DuplicateRegistrationError when the identifier is already
// bound instead of overwriting it.
func (c *Container) RegisterStrict(identifier string, factory Factory, lifetime Lifetime) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(identifier)
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	if hasBinding || hasInstance {
		return &DuplicateRegistrationError{Identifier: identifier}
	}
	c.bind(identifier, factory, lifetime)
	return nil
}

// Bind registers a transient factory: a fresh instance is built on every
// resolution.
//
//	c.Bind("RequestParser", func(c *container.Container) any {
//	    return parse.New()
//	})
func (c *Container) Bind(identifier string, factory Factory) {
	c.Register(identifier, factory, Transient)
}

// Singleton registers a factory whose result is cached after the first
// resolution. The cached instance is never rebuilt for the lifetime of the
// container.
//
//	c.Singleton("cache", func(c *container.Container) any {
//	    return cache.New(container.Resolve[*config.Config](c, "config"))
//	})
func (c *Container) Singleton(identifier string, factory Factory) {
	c.Register(identifier, factory, Singleton)
}

// Instance registers a pre-built value as a singleton.
//
//	c.Instance("config", cfg)
func (c *Container) Instance(identifier string, instance any) {
	c.mu.Lock()
	key := c.canonical(identifier)
	delete(c.bindings, key)
	c.instances[key] = instance
	c.mu.Unlock()
	// Fire outside the lock, as bind and Extend do: fireRebound re-acquires it.
	c.fireRebound(identifier, instance)
}

// bind is the internal registration helper (must hold mu.Lock).
func (c *Container) bind(identifier string, factory Factory, lifetime Lifetime) {
	key := c.canonical(identifier)

	// Drop existing singleton instance so it's rebuilt with the new factory
	wasBound := c.instances[key] != nil
	delete(c.instances, key)

	c.bindings[key] = &binding{factory: factory, lifetime: lifetime}

	if wasBound {
		c.mu.Unlock()
		c.fireRebound(identifier, c.Make(identifier))
		c.mu.Lock()
	}
}

// Alias registers an alternative name for an identifier.
//
//	c.Alias("UserRepository", "users")
func (c *Container) Alias(identifier, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if identifier == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", identifier))
	}
	c.aliases[alias] = c.canonical(identifier)
}

// ── Contextual Binding ────────────────────────────────────────────────────────

// When starts a contextual binding chain: while the named concrete is being
// built, the dependency named by Needs resolves through the Give factory
// instead of the global binding.
//
//	c.When("ReportController").Needs("Storage").Give(func(c *container.Container) any {
//	    return storage.NewArchive()
//	})
func (c *Container) When(concrete string) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

// getContextual returns the contextual factory for (concrete, identifier), or nil.
func (c *Container) getContextual(concrete, identifier string) Factory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.contextual[concrete]; ok {
		if f, ok := m[identifier]; ok {
			return f
		}
	}
	return nil
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the resolved instance of an identifier.
//
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return logging.WithPrefix(instance.(*logging.Logger), "worker")
//	})
func (c *Container) Extend(identifier string, fn extender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(identifier)
	c.extenders[key] = append(c.extenders[key], fn)

	// If already resolved as singleton, re-apply extenders and refire rebound
	if inst, ok := c.instances[key]; ok {
		extended := c.applyExtenders(c.extenders[key], inst)
		c.instances[key] = extended
		c.mu.Unlock()
		c.fireRebound(identifier, extended)
		c.mu.Lock()
	}
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple identifiers under a named group.
//
//	c.Tag([]string{"CpuProbe", "MemProbe"}, "probes")
func (c *Container) Tag(identifiers []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], identifiers...)
}

// Tagged resolves all identifiers registered under a tag.
//
//	probes := c.Tagged("probes")  // []any
func (c *Container) Tagged(tag string) []any {
	c.mu.RLock()
	identifiers := c.tags[tag]
	c.mu.RUnlock()

	result := make([]any, 0, len(identifiers))
	for _, id := range identifiers {
		result = append(result, c.Make(id))
	}
	return result
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve builds or fetches the value registered under identifier.
//
// Singletons are built once and memoized; transients run their factory on
// every call. Unknown identifiers return a *ServiceNotFoundError and a
// factory chain that loops back on itself returns a
// *CircularDependencyError.
//
//	svc, err := c.Resolve("UserService")
func (c *Container) Resolve(identifier string) (any, error) {
	return c.resolve(identifier)
}

// Make resolves an identifier and panics on failure. Use it where a missing
// binding is a programmer error (bootstrap wiring, tagged groups); use
// Resolve where the caller can degrade.
//
//	repo := c.Make("UserRepository")
func (c *Container) Make(identifier string) any {
	v, err := c.resolve(identifier)
	if err != nil {
		panic(err)
	}
	return v
}

// resolve is the internal resolver (no outer lock — individual ops lock as needed).
func (c *Container) resolve(identifier string) (any, error) {
	c.mu.RLock()
	key := c.canonical(identifier)

	// Check singleton instance cache
	if inst, ok := c.instances[key]; ok {
		c.mu.RUnlock()
		return inst, nil
	}

	b := c.bindings[key]

	// A key already on the build stack means the chain looped, unless the
	// identifier was re-bound since that frame was pushed (deferred
	// providers do exactly that).
	for _, fr := range c.buildStack {
		if fr.key == key && (fr.b == nil || fr.b == b) {
			path := make([]string, 0, len(c.buildStack)+1)
			for _, f := range c.buildStack {
				path = append(path, f.key)
			}
			c.mu.RUnlock()
			return nil, &CircularDependencyError{Path: append(path, key)}
		}
	}

	// Contextual binding: look at the current build stack top
	var caller string
	if len(c.buildStack) > 0 {
		caller = c.buildStack[len(c.buildStack)-1].key
	}
	c.mu.RUnlock()

	if caller != "" {
		if f := c.getContextual(caller, key); f != nil {
			return c.runFactory(key, f, Transient, nil)
		}
	}

	if b == nil {
		return nil, &ServiceNotFoundError{Identifier: identifier, Registered: c.RegisteredServices()}
	}

	return c.runFactory(key, b.factory, b.lifetime, b)
}

// runFactory executes a factory, optionally caching the result.
func (c *Container) runFactory(key string, f Factory, lifetime Lifetime, b *binding) (any, error) {
	c.mu.Lock()
	c.buildStack = append(c.buildStack, buildFrame{key: key, b: b})
	c.mu.Unlock()

	instance, err := c.callFactory(key, f)

	c.mu.Lock()
	c.buildStack = c.buildStack[:len(c.buildStack)-1]
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	// Apply extenders
	c.mu.RLock()
	exts := c.extenders[key]
	c.mu.RUnlock()
	if len(exts) > 0 {
		instance = c.applyExtenders(exts, instance)
	}

	if lifetime == Singleton {
		c.mu.Lock()
		// Keep the first cached instance if a concurrent resolve won the race
		if cached, ok := c.instances[key]; ok {
			instance = cached
		} else {
			c.instances[key] = instance
		}
		c.mu.Unlock()
	}

	c.fireAfterResolving(key, instance)
	return instance, nil
}

// callFactory runs the factory and converts panics (its own, or those of
// nested Make calls inside it) into a *ResolutionError.
func (c *Container) callFactory(key string, f Factory) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if cause, ok := r.(error); ok {
				err = &ResolutionError{Identifier: key, Cause: cause}
			} else {
				err = &ResolutionError{Identifier: key, Cause: fmt.Errorf("%v", r)}
			}
		}
	}()
	return f(c), nil
}

func (c *Container) applyExtenders(exts []extender, instance any) any {
	for _, ext := range exts {
		instance = ext(instance, c)
	}
	return instance
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound returns true if an identifier has been registered.
func (c *Container) Bound(identifier string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(identifier)
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	return hasBinding || hasInstance
}

// Resolved returns true if the identifier has been resolved at least once.
func (c *Container) Resolved(identifier string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(identifier)
	_, ok := c.instances[key]
	return ok
}

// Forget removes all registrations for an identifier (binding + instance).
func (c *Container) Forget(identifier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(identifier)
	delete(c.bindings, key)
	delete(c.instances, key)
}

// Clear resets the container to its initial state, dropping every binding,
// instance, alias, tag, and callback. The self-registration under
// "container" is restored. Primarily for test isolation.
func (c *Container) Clear() {
	c.mu.Lock()
	c.bindings = make(map[string]*binding)
	c.instances = make(map[string]any)
	c.aliases = make(map[string]string)
	c.extenders = make(map[string][]extender)
	c.tags = make(map[string][]string)
	c.contextual = make(map[string]map[string]Factory)
	c.reboundCallbacks = make(map[string][]func(any))
	c.afterResolving = nil
	c.buildStack = nil
	c.mu.Unlock()
	c.Instance("container", c)
}

// RegisteredServices returns the sorted list of every identifier the
// container knows about (bindings and pre-built instances).
func (c *Container) RegisteredServices() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings)+len(c.instances))
	for k := range c.bindings {
		out = append(out, k)
	}
	for k := range c.instances {
		if _, already := c.bindings[k]; !already {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// canonical resolves an alias to its canonical key (callers hold mu).
func (c *Container) canonical(identifier string) string {
	if target, ok := c.aliases[identifier]; ok {
		return target
	}
	return identifier
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback to be called whenever an identifier is re-bound.
func (c *Container) Rebinding(identifier string, cb func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reboundCallbacks[identifier] = append(c.reboundCallbacks[identifier], cb)
}

// AfterResolving registers a callback fired after any identifier is resolved.
func (c *Container) AfterResolving(cb func(identifier string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireRebound(identifier string, instance any) {
	c.mu.RLock()
	cbs := c.reboundCallbacks[identifier]
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance)
	}
}

func (c *Container) fireAfterResolving(identifier string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(identifier, instance)
	}
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// identifier when registering by type.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "myapp/repos.UserRepository"
//	c.Singleton(key, factory)
//	repo := container.Resolve[UserRepository](c, key)
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	// Instead of: logger := c.Make("logger").(*logging.Logger)
//	// Write:      logger := container.Resolve[*logging.Logger](c, "logger")
func Resolve[T any](c *Container, identifier string) T {
	instance := c.Make(identifier)
	typed, ok := instance.(T)
	if !ok {
		panic(fmt.Sprintf("container: Resolve[%T]: [%s] resolved to %T", *new(T), identifier, instance))
	}
	return typed
}

// MustResolve is like Resolve but returns (T, bool) without panicking.
func MustResolve[T any](c *Container, identifier string) (T, bool) {
	v, err := c.resolve(identifier)
	if err != nil {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
