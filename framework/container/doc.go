// Package container provides the service container and Service Provider
// system at the core of the framework.
//
// # Overview
//
// The container manages the instantiation and lifecycle of an application's
// components. Components are registered under string identifiers with an
// explicit lifetime; resolution builds singletons once and memoizes them,
// and rebuilds transients on every call. The container also supports
// pre-built instances, aliases, tags, contextual bindings, and extension
// (decoration).
//
// Resolution never silently returns nil: an unknown identifier yields a
// *ServiceNotFoundError carrying the sorted list of identifiers that ARE
// registered, and a factory chain that loops back on itself yields a
// *CircularDependencyError with the full chain.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot()        — safe to resolve everything after this
//  4. Serve requests
//
// First resolutions are expected to happen during the single-threaded
// bootstrap pass; after boot the container is safe for concurrent reads.
//
// # Bindings
//
//	// Transient — new instance every resolution
//	c.Bind("RequestParser", func(c *container.Container) any { return parse.New() })
//
//	// Singleton — created once, reused
//	c.Singleton("cache", func(c *container.Container) any {
//	    cfg := container.Resolve[*config.Config](c, "config")
//	    return cache.New(cfg.Cache)
//	})
//
//	// Explicit lifetime (what the component registrar uses)
//	c.Register("UserService", factory, container.Singleton)
//
//	// Pre-built value
//	c.Instance("config", cfg)
//
//	// Alias
//	c.Alias("UserRepository", "users")
//
// # Resolving
//
//	// Error-returning
//	svc, err := c.Resolve("UserService")
//
//	// Panicking — for wiring code where absence is a programmer error
//	raw := c.Make("cache")
//
//	// Generic (no type assertion required)
//	cache := container.Resolve[*cache.Store](c, "cache")
//
// # Contextual Binding
//
//	c.When("ReportController").
//	    Needs("Storage").
//	    Give(func(c *container.Container) any { return storage.NewArchive() })
//
// # Tags
//
//	c.Tag([]string{"CpuProbe", "MemProbe"}, "probes")
//	probes := c.Tagged("probes")  // []any
//
// # Extend / Decorate
//
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return logging.WithPrefix(instance.(*logging.Logger), "worker")
//	})
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) {
//	    app.Singleton("mailer", func(c *container.Container) any {
//	        cfg := container.Resolve[*config.Config](c, "config")
//	        return mail.New(cfg.Mail)
//	    })
//	}
//
//	func (p *AppServiceProvider) Boot(app *container.Container) {
//	    // safe to resolve other bindings here
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(app *container.Container) {
//	    app.Singleton("heavy", func(c *container.Container) any {
//	        return heavySetup() // only called on first resolution of "heavy"
//	    })
//	}
package container
