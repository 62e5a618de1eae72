// Package middleware turns the declarative descriptors attached to routes
// into executable chain entries.
//
// Descriptors stay inert data until mount time; Build allocates whatever
// state a kind needs (limiter pools, response caches) once per descriptor,
// so every request through the route shares it.
package middleware

import (
	"fmt"
	"time"

	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/logging"
	"github.com/km-arc/armature/framework/metadata"
)

const (
	defaultRPS       = 10
	defaultCacheTTL  = 60 // seconds
	defaultCacheSize = 1024
)

// BuildError reports a descriptor the builder cannot compile.
type BuildError struct {
	Kind   metadata.MiddlewareKind
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("middleware: cannot build %q: %s", e.Kind, e.Reason)
}

// Builder compiles middleware descriptors into executable middleware.
//
//	b := middleware.NewBuilder().
//		WithSecret([]byte(cfg.Auth.Secret)).
//		WithLogger(log)
//	mw, err := b.Build(desc)
type Builder struct {
	log          *logging.Logger
	secret       []byte
	cacheSize    int
	cacheTTL     time.Duration
	defaultRPS   float64
	defaultBurst int
}

// NewBuilder returns a builder with the default logger and cache size.
func NewBuilder() *Builder {
	return &Builder{
		log:        logging.Default(),
		cacheSize:  defaultCacheSize,
		cacheTTL:   defaultCacheTTL * time.Second,
		defaultRPS: defaultRPS,
	}
}

// WithLogger sets the logger used by the auth and logging middleware.
func (b *Builder) WithLogger(log *logging.Logger) *Builder {
	if log != nil {
		b.log = log
	}
	return b
}

// WithSecret sets the HS256 signing secret the auth middleware verifies
// tokens against. Auth descriptors fail to build without one.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.secret = secret
	return b
}

// WithCacheSize bounds the number of entries each cache descriptor keeps.
func (b *Builder) WithCacheSize(n int) *Builder {
	if n > 0 {
		b.cacheSize = n
	}
	return b
}

// WithCacheTTL sets the expiry used when a cache descriptor leaves its
// TTL zero.
func (b *Builder) WithCacheTTL(ttl time.Duration) *Builder {
	if ttl > 0 {
		b.cacheTTL = ttl
	}
	return b
}

// WithRateDefaults sets the limits used when a rate-limit descriptor
// leaves them zero.
func (b *Builder) WithRateDefaults(rps float64, burst int) *Builder {
	if rps > 0 {
		b.defaultRPS = rps
	}
	if burst > 0 {
		b.defaultBurst = burst
	}
	return b
}

// Build compiles one descriptor. Stateful kinds allocate their state
// here, once, rather than per request.
func (b *Builder) Build(desc metadata.Middleware) (dispatch.Middleware, error) {
	switch desc.Kind {
	case metadata.MwAuth:
		if len(b.secret) == 0 {
			return nil, &BuildError{Kind: desc.Kind, Reason: "no signing secret configured"}
		}
		return b.auth(desc.Roles), nil
	case metadata.MwValidate:
		return validate(desc.Rules), nil
	case metadata.MwRateLimit:
		rps, burst := desc.RPS, desc.Burst
		if rps <= 0 {
			rps = b.defaultRPS
		}
		if burst <= 0 {
			burst = b.defaultBurst
		}
		return rateLimit(rps, burst), nil
	case metadata.MwCORS:
		return cors(desc.Origins), nil
	case metadata.MwLogging:
		return b.requestLog(), nil
	case metadata.MwCache:
		return b.cache(desc.TTL), nil
	case metadata.MwCustom:
		if desc.Fn == nil {
			return nil, &BuildError{Kind: desc.Kind, Reason: "custom middleware has no function"}
		}
		return desc.Fn, nil
	default:
		return nil, &BuildError{Kind: desc.Kind, Reason: "unknown middleware kind"}
	}
}
