package providers

import (
	"github.com/km-arc/armature/framework/config"
	"github.com/km-arc/armature/framework/container"
	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/logging"
	"github.com/km-arc/armature/framework/routing"
)

// ── ConfigProvider ────────────────────────────────────────────────────────────

// ConfigProvider loads the application configuration from .env and binds
// it into the container.
//
// Bound abstracts:
//   - "config"  → *config.Config
type ConfigProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigProvider) Register(app *container.Container) {
	envFiles := p.EnvFiles
	app.Singleton("config", func(c *container.Container) any {
		return config.Load(envFiles...)
	})
	app.Alias("config", "configuration")
}

// ── LoggingProvider ───────────────────────────────────────────────────────────

// LoggingProvider binds the structured logger, shaped by the logging
// section of the configuration.
//
// Bound abstracts:
//   - "logger"  → *logging.Logger
type LoggingProvider struct {
	container.BaseProvider
}

func (p *LoggingProvider) Register(app *container.Container) {
	app.Singleton("logger", func(c *container.Container) any {
		cfg := container.Resolve[*config.Config](c, "config")
		return logging.New(logging.Options{
			Level: cfg.Logging.Level,
			JSON:  cfg.Logging.Format == "json",
		})
	})
	app.Alias("logger", "log")
}

// ── RoutingProvider ───────────────────────────────────────────────────────────

// RoutingProvider registers the HTTP router.
//
// Bound abstracts:
//   - "router"  → *routing.Router
type RoutingProvider struct {
	container.BaseProvider
}

func (p *RoutingProvider) Register(app *container.Container) {
	app.Singleton("router", func(c *container.Container) any {
		return routing.New()
	})
}

// ── DispatchProvider ──────────────────────────────────────────────────────────

// DispatchProvider registers the error classifier and the request
// dispatcher. Rebind "errorHandler" before boot to change how errors map
// to responses; the dispatcher picks the rebound classifier up.
//
// Bound abstracts:
//   - "errorHandler" → dispatch.ErrorClassifier
//   - "dispatcher"   → *dispatch.Dispatcher
type DispatchProvider struct {
	container.BaseProvider
}

func (p *DispatchProvider) Register(app *container.Container) {
	app.Singleton("errorHandler", func(c *container.Container) any {
		return dispatch.DefaultClassifier{}
	})
	app.Singleton("dispatcher", func(c *container.Container) any {
		return dispatch.New(
			container.Resolve[*logging.Logger](c, "logger"),
			container.Resolve[dispatch.ErrorClassifier](c, "errorHandler"),
		)
	})
}
