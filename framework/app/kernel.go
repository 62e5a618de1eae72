package app

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/km-arc/armature/framework/config"
	"github.com/km-arc/armature/framework/container"
	"github.com/km-arc/armature/framework/discovery"
	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/logging"
	"github.com/km-arc/armature/framework/metadata"
	"github.com/km-arc/armature/framework/middleware"
	"github.com/km-arc/armature/framework/providers"
	"github.com/km-arc/armature/framework/registrar"
	"github.com/km-arc/armature/framework/routing"
)

// Application is the top-level application container. It embeds the IoC
// Container and ProviderRegistry so user code can call app.Bind(),
// app.Singleton(), app.Register() directly.
//
// Bootstrap runs on a single goroutine: declare components, then
// DiscoverAndRegister, then Run. Request traffic starts only after the
// whole pass completes, with every singleton already warmed up.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	registry *metadata.Registry
	global   []metadata.Middleware

	discovered *discovery.Result
	registered *registrar.Result
	routes     []routing.CompiledRoute

	server *http.Server
}

// New creates the application and registers the framework providers.
func New(envFiles ...string) *Application {
	c := container.New()
	registry := container.NewProviderRegistry(c)

	app := &Application{
		Container: c,
		Providers: registry,
		registry:  metadata.NewRegistry(),
	}

	// The container resolves itself under a reserved identifier so
	// component constructors can take *container.Container.
	c.Instance("container", c)

	registry.Register(&providers.ConfigProvider{EnvFiles: envFiles})
	registry.Register(&providers.LoggingProvider{})
	registry.Register(&providers.RoutingProvider{})
	registry.Register(&providers.DispatchProvider{})

	return app
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) {
	a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() {
	a.Providers.Boot()
}

// Declare runs declaration functions against the application's metadata
// registry. Call before DiscoverAndRegister.
func (a *Application) Declare(fns ...func(*metadata.Registry)) {
	for _, fn := range fns {
		fn(a.registry)
	}
}

// Use appends global middleware descriptors, applied to every mounted
// route ahead of the class and method tiers.
func (a *Application) Use(desc ...metadata.Middleware) {
	a.global = append(a.global, desc...)
}

// DiscoverAndRegister runs the bootstrap pass: scan the component
// directory, register every declared component through the container,
// then compile and mount the declared routes.
func (a *Application) DiscoverAndRegister(ctx context.Context) error {
	if !a.Providers.Booted() {
		a.Boot()
	}
	cfg := a.Config()
	log := a.Logger()

	found, err := discovery.New(cfg.Discovery.Dir).
		WithLogger(log).
		WithMaxDepth(cfg.Discovery.MaxDepth).
		WithBatchSize(cfg.Discovery.BatchSize).
		WithParallel(cfg.Discovery.Parallelism).
		WithExtensions(cfg.Discovery.Extensions...).
		Discover(ctx)
	if err != nil {
		return err
	}
	a.discovered = found

	passed, err := registrar.New(a.Container, &registrar.RegistryLoader{Registry: a.registry}).
		WithLogger(log).
		ContinueOnError().
		Register(ctx, found.Components)
	if passed != nil {
		a.registered = passed
	}
	if err != nil {
		return err
	}
	if err := structuralErr(passed); err != nil {
		return err
	}

	return a.mountRoutes(cfg, log)
}

// structuralErr separates real component defects from discovered files
// that simply declare nothing. The latter were already logged during the
// pass and are tolerated; everything else stops the bootstrap.
func structuralErr(res *registrar.Result) error {
	var merr *multierror.Error
	for _, ce := range res.Errors {
		var imp *registrar.ImportError
		if errors.As(ce, &imp) {
			continue
		}
		merr = multierror.Append(merr, ce)
	}
	return merr.ErrorOrNil()
}

// mountRoutes compiles the declared route tables and binds them onto the
// router. Controllers that declared a constructor but never registered
// are skipped with a warning rather than failing the bootstrap.
func (a *Application) mountRoutes(cfg *config.Config, log *logging.Logger) error {
	decls := a.registry.All()
	mountable := make([]*metadata.Declaration, 0, len(decls))
	for _, d := range decls {
		if d.Routes == nil || len(d.Routes.Routes) == 0 {
			continue
		}
		if d.HasMetadata() && !a.Bound(d.Name) {
			log.WithFields(logging.Fields{"controller": d.Name}).Warn("routes skipped: component not registered")
			continue
		}
		mountable = append(mountable, d)
	}

	global := a.global
	if len(cfg.CORS.Origins) > 0 {
		global = append([]metadata.Middleware{metadata.CORS(cfg.CORS.Origins...)}, global...)
	}

	routes, err := routing.NewCompiler().Use(global...).Compile(mountable)
	if err != nil {
		return err
	}

	instances := make(map[string]any, len(mountable))
	for _, d := range mountable {
		if !a.Bound(d.Name) {
			continue
		}
		v, err := a.Resolve(d.Name)
		if err != nil {
			return err
		}
		instances[d.Name] = v
	}

	builder := middleware.NewBuilder().
		WithLogger(log).
		WithSecret([]byte(cfg.Auth.Secret)).
		WithCacheSize(cfg.Cache.Size).
		WithCacheTTL(cfg.Cache.TTL).
		WithRateDefaults(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	if err := routing.Mount(a.Router(), a.Dispatcher(), routes, instances, builder.Build); err != nil {
		return err
	}
	a.routes = routes

	log.WithFields(logging.Fields{"routes": len(routes)}).Info("routes mounted")
	return nil
}

// Run boots the application if needed and serves HTTP until ctx is
// cancelled, then drains in-flight requests.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		a.Boot()
	}
	cfg := a.Config()
	log := a.Logger()

	a.server = &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          stdlog.New(log.Writer(), "", 0),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logging.Fields{
			"app":  cfg.App.Name,
			"addr": a.server.Addr,
			"env":  cfg.App.Env,
		}).Info("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server, bounded by a timeout.
func (a *Application) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

// ── Accessors ─────────────────────────────────────────────────────────────────

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.Resolve[*config.Config](a.Container, "config")
}

// Logger resolves *logging.Logger from the container.
func (a *Application) Logger() *logging.Logger {
	return container.Resolve[*logging.Logger](a.Container, "logger")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.Resolve[*routing.Router](a.Container, "router")
}

// Dispatcher resolves *dispatch.Dispatcher from the container.
func (a *Application) Dispatcher() *dispatch.Dispatcher {
	return container.Resolve[*dispatch.Dispatcher](a.Container, "dispatcher")
}

// Declarations exposes the metadata registry.
func (a *Application) Declarations() *metadata.Registry { return a.registry }

// Discovered returns the last discovery result, nil before the pass.
func (a *Application) Discovered() *discovery.Result { return a.discovered }

// Registered returns the last registration result, nil before the pass.
func (a *Application) Registered() *registrar.Result { return a.registered }

// Routes returns the compiled route table, nil before mounting.
func (a *Application) Routes() []routing.CompiledRoute { return a.routes }

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return "0.1.0" }
